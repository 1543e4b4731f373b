package lib

import (
	"cmp"
	"slices"
	"sync"
)

// SafeMap is a map on which reads and writes are goroutine-safe
type SafeMap[K cmp.Ordered, V any] struct {
	mx   *sync.RWMutex
	data map[K]V
}

// NewSafeMap creates new SafeMap
func NewSafeMap[K cmp.Ordered, V any]() SafeMap[K, V] {
	return SafeMap[K, V]{
		data: map[K]V{},
		mx:   &sync.RWMutex{},
	}
}

// Get gets value for given key
func (m SafeMap[K, V]) Get(key K) (V, bool) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set sets value for a given key
func (m SafeMap[K, V]) Set(key K, value V) {
	m.mx.Lock()
	m.data[key] = value
	m.mx.Unlock()
}

// SetIfAbsent stores value unless key is present, and reports whether it did
func (m SafeMap[K, V]) SetIfAbsent(key K, value V) bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	if _, exists := m.data[key]; exists {
		return false
	}
	m.data[key] = value
	return true
}

// Len returns number of elements in map
func (m SafeMap[K, V]) Len() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.data)
}

// Keys returns the keys in ascending order
func (m SafeMap[K, V]) Keys() []K {
	m.mx.RLock()
	keys := make([]K, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mx.RUnlock()
	slices.Sort(keys)
	return keys
}
