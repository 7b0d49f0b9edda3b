package session

import (
	"sync"
	"time"
)

// atomicState/atomicTime/atomicBool are tiny mutex-guarded boxes; the
// session's hot fields are read far more often than written, so a plain
// sync.Mutex reads cleaner here than lock-free tricks that buy nothing at
// this scale (1..8 participants, single-digit reads per packet).

type atomicState struct {
	mu sync.Mutex
	v  State
}

func (a *atomicState) get() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

func (a *atomicState) set(v State) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

type atomicTime struct {
	mu sync.Mutex
	v  time.Time
}

func (a *atomicTime) get() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

func (a *atomicTime) set(v time.Time) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (a *atomicBool) get() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

func (a *atomicBool) set(v bool) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}
