package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("Serializes the same key", func(t *testing.T) {
		k := newKeyedMutex()
		var wg sync.WaitGroup
		counter := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock("unit-1")
				counter++
				unlock()
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
		assert.Empty(t, k.locks)
	})

	t.Run("Different keys do not block each other", func(t *testing.T) {
		k := newKeyedMutex()
		unlockA := k.Lock("a")
		done := make(chan struct{})
		go func() {
			unlock := k.Lock("b")
			unlock()
			close(done)
		}()
		<-done
		unlockA()
		assert.Empty(t, k.locks)
	})
}
