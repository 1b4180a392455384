package deps

import "sync"

// VisitTracker records which project files a traversal has already
// processed, keyed by absolute path.
type VisitTracker struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewVisitTracker returns an empty tracker.
func NewVisitTracker() *VisitTracker {
	return &VisitTracker{seen: make(map[string]struct{})}
}

// MarkVisited registers path and reports whether it was newly added. A false
// result means the path was already processed and should be skipped.
func (v *VisitTracker) MarkVisited(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[path]; ok {
		return false
	}
	v.seen[path] = struct{}{}
	v.order = append(v.order, path)
	return true
}

// Visited reports whether path has been registered.
func (v *VisitTracker) Visited(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.seen[path]
	return ok
}

// Len returns the number of registered paths.
func (v *VisitTracker) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.order)
}

// Paths returns the registered paths in registration order.
func (v *VisitTracker) Paths() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.order...)
}

// Reset forgets every registered path.
func (v *VisitTracker) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seen = make(map[string]struct{})
	v.order = nil
}
