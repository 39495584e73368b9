package client

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncLock(t *testing.T) {
	var l SyncLock

	assert.False(t, l.Locked())
	assert.True(t, l.TryAcquire())
	assert.True(t, l.Locked())
	assert.False(t, l.TryAcquire(), "second acquire must fail while locked")
	assert.True(t, l.Locked())

	l.Release()
	assert.False(t, l.Locked())
	l.Release()
	assert.False(t, l.Locked())

	assert.True(t, l.TryAcquire())
}

func TestSyncLock_SingleWinner(t *testing.T) {
	var (
		l    SyncLock
		wins atomic.Int32
		wg   sync.WaitGroup
	)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
