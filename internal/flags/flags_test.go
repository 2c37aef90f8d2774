package flags

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueSetNotifies(t *testing.T) {
	debug := New(false)

	var got []bool
	unsub := debug.Subscribe(func(v bool) { got = append(got, v) })

	debug.Set(true)
	debug.Set(true) // unchanged, no notification
	debug.Set(false)
	unsub()
	unsub()
	debug.Set(true)

	assert.Equal(t, []bool{true, false}, got)
	assert.True(t, debug.Get())
}

func TestValueSubscriberMaySet(t *testing.T) {
	v := New(0)
	v.Subscribe(func(n int) {
		if n < 3 {
			v.Set(n + 1)
		}
	})
	v.Set(1)
	assert.Equal(t, 3, v.Get())
}

func TestValueConcurrent(t *testing.T) {
	v := New("")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := v.Subscribe(func(string) {})
			v.Set("x")
			_ = v.Get()
			unsub()
		}()
	}
	wg.Wait()
	assert.Equal(t, "x", v.Get())
}
