package phxkit

import (
	"sync"
	"time"
)

// Clock abstracts timer scheduling so retry and heartbeat timing are
// injectable in tests. Callbacks run on the clock's goroutines; the session
// posts them back onto its own event queue.
type Clock interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func())

	// Every runs fn at every interval d until the returned stop function
	// is called. stop is idempotent.
	Every(d time.Duration, fn func()) (stop func())
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

func (systemClock) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
