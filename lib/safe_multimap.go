package lib

import "sync"

// MultiMap is a multi-map to which writes are go-routine safe
type MultiMap[K comparable, V any] struct {
	mx   *sync.Mutex
	data map[K][]V
}

// NewMultiMap creates new MultiMap
func NewMultiMap[K comparable, V any]() (m MultiMap[K, V]) {
	return MultiMap[K, V]{
		data: map[K][]V{},
		mx:   &sync.Mutex{},
	}
}

// Get gets all values matching the key
func (m MultiMap[K, V]) Get(key K) []V {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.data[key]
}

// Exists checks whether key exists in map
func (m MultiMap[K, V]) Exists(key K) bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	_, exists := m.data[key]
	return exists
}

// Add appends a value for the key
func (m MultiMap[K, V]) Add(key K, value V) {
	m.mx.Lock()
	m.data[key] = append(m.data[key], value)
	m.mx.Unlock()
}

// Groups returns every key that has at least min values
func (m MultiMap[K, V]) Groups(min int) map[K][]V {
	m.mx.Lock()
	defer m.mx.Unlock()
	groups := make(map[K][]V)
	for k, values := range m.data {
		if len(values) >= min {
			groups[k] = values
		}
	}
	return groups
}
