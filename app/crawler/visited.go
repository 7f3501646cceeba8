package crawler

import "sync"

// Visited deduplicates URLs within one orchestration invocation. It is
// add-only for the lifetime of the invocation and safe for concurrent use
// by multiple source crawls.
type Visited struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewVisited() *Visited {
	return &Visited{seen: make(map[string]struct{})}
}

// Add inserts the URL if absent and reports whether it was newly added.
func (v *Visited) Add(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	return true
}

// Len returns the number of URLs seen so far.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
