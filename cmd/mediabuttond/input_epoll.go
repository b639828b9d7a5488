//go:build linux

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// readInputEventsMulti reads from multiple input devices using epoll.
//
// One goroutine with epoll instead of a goroutine per device: the kernel
// wakes us only when a device has data, which scales to a box with an IR
// receiver, a USB remote and a headset dongle all attached.
func readInputEventsMulti(files []*os.File, events chan<- inputEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- fmt.Errorf("no input devices provided")
		return
	}

	// Create epoll instance
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		readErr <- fmt.Errorf("epoll_create1: %w", err)
		return
	}
	defer unix.Close(epfd)

	// Map file descriptors to files for later identification
	fdToFile := make(map[int]*os.File)

	// Register all input devices with epoll
	for _, f := range files {
		fd := int(f.Fd())
		fdToFile[fd] = f

		event := unix.EpollEvent{
			Events: unix.EPOLLIN, // Notify when readable
			Fd:     int32(fd),
		}

		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			readErr <- fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
			return
		}
	}

	// Reusable buffers
	const maxEvents = 32 // Process up to 32 events per epoll_wait call
	epollEvents := make([]unix.EpollEvent, maxEvents)
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	// Main epoll loop
	for {
		// Wait for events (blocks until at least one device has data)
		// -1 = wait indefinitely
		n, err := unix.EpollWait(epfd, epollEvents, -1)
		if err != nil {
			// Handle interrupted system call (e.g., SIGINT)
			if err == syscall.EINTR {
				continue
			}
			readErr <- fmt.Errorf("epoll_wait: %w", err)
			return
		}

		// Process all ready file descriptors
		for i := 0; i < n; i++ {
			fd := int(epollEvents[i].Fd)
			f := fdToFile[fd]

			// Any device error or hangup is treated as fatal; the supervisor
			// decides whether to reopen devices.
			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				readErr <- fmt.Errorf("device error/hangup: %s (fd=%d)", f.Name(), fd)
				return
			}

			// Read the input event
			if _, err := f.Read(buf); err != nil {
				readErr <- fmt.Errorf("read from %s: %w", f.Name(), err)
				return
			}

			// Parse binary event
			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				// Skip malformed events
				continue
			}

			events <- ev
		}
	}
}
