package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_keyLock_SerializesTheSameKey(t *testing.T) {
	// arrange
	locks := newKeyLock()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	// act
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := locks.Lock("book:3")
			defer unlock()

			current := inside.Add(1)
			for {
				seen := maxInside.Load()
				if current <= seen || maxInside.CompareAndSwap(seen, current) {
					break
				}
			}
			inside.Add(-1)
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, locks.size())
}

func Test_keyLock_DifferentKeysDoNotBlockEachOther(t *testing.T) {
	// arrange
	locks := newKeyLock()
	unlockFirst := locks.Lock("book:1")

	// act
	unlockSecond := locks.Lock("book:2")

	// assert
	assert.Equal(t, 2, locks.size())
	unlockSecond()
	unlockFirst()
	assert.Equal(t, 0, locks.size())
}
