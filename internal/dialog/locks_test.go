package dialog

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()
	const keys = 5
	var inflight [keys]int32

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := i % keys
			unlock := km.lock(strconv.Itoa(k))
			if n := atomic.AddInt32(&inflight[k], 1); n != 1 {
				t.Errorf("key %d held by %d goroutines", k, n)
			}
			atomic.AddInt32(&inflight[k], -1)
			unlock()
		}(i)
	}
	wg.Wait()

	// Released keys leave no entry behind.
	assert.Equal(t, 0, km.size())
}

func TestKeyedMutexReleasesEntryWhileOthersWait(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()
	unlock := km.lock("u1")

	done := make(chan struct{})
	go func() {
		second := km.lock("u1")
		second()
		close(done)
	}()

	// The waiter keeps the entry alive until it runs and releases.
	unlock()
	<-done
	assert.Equal(t, 0, km.size())
}
