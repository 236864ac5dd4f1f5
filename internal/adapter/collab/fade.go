package collab

import (
	"sync"
	"time"
)

// TimedFade is a screen effect that only tracks timing. A fade starts out
// obscuring so the first step of a freshly loaded scene waits for the reveal.
type TimedFade struct {
	duration time.Duration

	mu        sync.Mutex
	obscuring bool
}

func NewTimedFade(duration time.Duration) *TimedFade {
	return &TimedFade{duration: duration, obscuring: true}
}

func (f *TimedFade) Obscuring() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obscuring
}

func (f *TimedFade) BeginReveal() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obscuring = false
	return f.duration
}

func (f *TimedFade) Obscure() {
	f.mu.Lock()
	f.obscuring = true
	f.mu.Unlock()
}
