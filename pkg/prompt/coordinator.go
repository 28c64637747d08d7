package prompt

import (
	"sync"
)

// Coordinator manages exclusive access to the user for blocking prompts, so
// that two questions are never shown at once.
type Coordinator struct {
	mu sync.Mutex
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Lock acquires exclusive access to the user. It returns an unlock function
// that MUST be called when the prompt is complete.
func (c *Coordinator) Lock() func() {
	c.mu.Lock()
	return func() {
		c.mu.Unlock()
	}
}
