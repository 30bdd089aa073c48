package network

import "sync"

// memo caches a derived value until invalidate is called.  Failed
// computations are not cached.
type memo[T any] struct {
	mu    sync.Mutex
	valid bool
	value T
}

func (m *memo[T]) get(compute func() (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid {
		return m.value, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	m.value, m.valid = v, true
	return v, nil
}

func (m *memo[T]) invalidate() {
	m.mu.Lock()
	m.valid = false
	var zero T
	m.value = zero
	m.mu.Unlock()
}

func (m *memo[T]) cached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}
