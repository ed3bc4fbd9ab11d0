package embcache

import "sync"

// FIFO is a bounded in-process vector cache with first-in-first-out
// eviction. Updating an existing key keeps its queue position.
type FIFO struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]float32
	order    []string
}

// NewFIFO creates a cache holding at most capacity vectors.
func NewFIFO(capacity int) *FIFO {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFO{
		capacity: capacity,
		entries:  make(map[string][]float32, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Get returns the cached vector for key, if present.
func (f *FIFO) Get(key string) ([]float32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vec, ok := f.entries[key]
	return vec, ok
}

// Put stores a vector, evicting the oldest entry when full.
func (f *FIFO) Put(key string, vec []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[key]; ok {
		f.entries[key] = vec
		return
	}

	if len(f.order) >= f.capacity {
		oldest := f.order[0]
		f.order = f.order[1:]
		delete(f.entries, oldest)
	}

	f.entries[key] = vec
	f.order = append(f.order, key)
}

// Len reports the number of cached vectors.
func (f *FIFO) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Capacity reports the maximum number of vectors the cache holds.
func (f *FIFO) Capacity() int {
	return f.capacity
}
