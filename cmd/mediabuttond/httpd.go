package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ============================================================================
// HTTP Server - Observer Surface
// ============================================================================
// Endpoints:
//   GET /ws      - websocket event stream (state_init snapshot, then events)
//   GET /status  - JSON StatusSnapshot
//   GET /healthz - liveness probe
// ============================================================================

// runHTTPServer starts the HTTP observer surface on the specified port and
// shuts it down gracefully when ctx is canceled.
//
// This replaces http.ListenAndServe so we can call Server.Shutdown during program shutdown.
func runHTTPServer(ctx context.Context, port int, hub *Hub, events chan<- Event, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleStateWS(hub, events, logger))
	mux.HandleFunc("/status", handleStatus(events, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	listenAddr := fmt.Sprintf(":%d", port)
	logger.Info("http server listening", "port", port)

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)

	go func() {
		// ListenAndServe returns http.ErrServerClosed on Shutdown; treat that as clean exit.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		// Graceful shutdown with a timeout.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		// Wait for the ListenAndServe goroutine to return.
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}

// handleStatus serves a JSON snapshot of daemon state, fetched through the
// daemon event loop like any other observer.
func handleStatus(events chan<- Event, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if events == nil {
			http.Error(w, "status unavailable", http.StatusServiceUnavailable)
			return
		}

		reply := make(chan StatusSnapshot, 1)

		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		select {
		case <-ctx.Done():
			http.Error(w, "status request timed out", http.StatusGatewayTimeout)
			return
		case events <- RequestStateSnapshot{Reply: reply}:
		}

		select {
		case <-ctx.Done():
			http.Error(w, "status request timed out", http.StatusGatewayTimeout)
			return
		case snap := <-reply:
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(snap); err != nil {
				logger.Warn("status encode failed", "error", err)
			}
		}
	}
}
