// Package flags holds runtime switches that can be observed for changes.
package flags

import "sync"

// Value is a typed publish/subscribe cell. Subscribers are called
// synchronously, outside the lock, after every Set that changes the value.
type Value[T comparable] struct {
	mu   sync.RWMutex
	v    T
	next int
	subs map[int]func(T)
}

func New[T comparable](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]func(T))}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

// Set stores x and notifies subscribers when it differs from the current value.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	if v.v == x {
		v.mu.Unlock()
		return
	}
	v.v = x
	subs := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(x)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	id := v.next
	v.next++
	v.subs[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}
