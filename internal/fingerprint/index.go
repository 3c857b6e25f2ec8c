package fingerprint

import "sync"

// Index is the in-memory novelty index for one run: a write-through cache
// of the store's persisted fingerprint set. Preload once at run start,
// then trust it for the run's duration.
type Index struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// Preload seeds the index with fingerprints already known to the store.
func (ix *Index) Preload(fps []string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, fp := range fps {
		ix.seen[fp] = struct{}{}
	}
}

// CheckAndRegister is the atomic novelty check-and-set. When two workers
// race on the same fingerprint, exactly one gets true.
func (ix *Index) CheckAndRegister(fp string) (novel bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.seen[fp]; ok {
		return false
	}
	ix.seen[fp] = struct{}{}
	return true
}

func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.seen)
}
