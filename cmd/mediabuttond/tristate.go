package main

// triState is a boolean that can also be unresolved. The classifier uses it
// to cache answers it would otherwise have to fetch on every event.
type triState int

const (
	triUnknown triState = iota
	triFalse
	triTrue
)

// flagCache is a lazily resolved boolean flag.
//
// The first read after construction (or after invalidate) calls fetch once and
// memoizes the answer. A failed or absent fetch memoizes the fallback instead,
// so a broken source is consulted once per invalidation, not once per event.
type flagCache struct {
	fetch    func() (bool, error)
	fallback bool
	state    triState
}

// resolve returns the cached value, fetching it first if unresolved.
// The returned error reports a fetch failure; the bool is still usable
// (it is the fallback in that case).
func (f *flagCache) resolve() (bool, error) {
	if f.state != triUnknown {
		return f.state == triTrue, nil
	}
	v := f.fallback
	var err error
	if f.fetch != nil {
		var got bool
		got, err = f.fetch()
		if err == nil {
			v = got
		}
	}
	f.set(v)
	return v, err
}

// set resolves the flag to a known value without consulting fetch.
func (f *flagCache) set(v bool) {
	if v {
		f.state = triTrue
	} else {
		f.state = triFalse
	}
}

// invalidate forgets the cached value; the next resolve fetches again.
func (f *flagCache) invalidate() {
	f.state = triUnknown
}

// value returns (cached value, true) if resolved, or (fallback, false) if not.
// It never triggers a fetch; use it for status reporting.
func (f *flagCache) value() (bool, bool) {
	if f.state == triUnknown {
		return f.fallback, false
	}
	return f.state == triTrue, true
}
