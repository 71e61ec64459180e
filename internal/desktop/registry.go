package desktop

import "sync"

// registry tracks live windows and reports when the last one goes away.
type registry[W comparable] struct {
	mu      sync.Mutex
	windows map[W]string
	onEmpty func()
}

func newRegistry[W comparable]() *registry[W] {
	return &registry[W]{windows: make(map[W]string)}
}

func (r *registry[W]) setOnEmpty(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEmpty = fn
}

func (r *registry[W]) add(w W, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[w] = name
}

// remove drops w and calls the empty callback when it was the last window.
// Removing an unknown window does nothing.
func (r *registry[W]) remove(w W) {
	r.mu.Lock()
	if _, ok := r.windows[w]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.windows, w)
	empty := len(r.windows) == 0
	fn := r.onEmpty
	r.mu.Unlock()

	if empty && fn != nil {
		fn()
	}
}

func (r *registry[W]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

// find returns a live window with the given name.
func (r *registry[W]) find(name string) (W, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for w, n := range r.windows {
		if n == name {
			return w, true
		}
	}
	var zero W
	return zero, false
}
