package persistence

import (
	"sync"

	"savekeep/pkg/logger"
)

// Host owns the single orchestrator of a process.
type Host struct {
	mu   sync.Mutex
	orch *Orchestrator
}

// Initialize builds the orchestrator on the first call. Later calls discard
// their options and return the existing instance with created=false.
func (h *Host) Initialize(opts Options) (orch *Orchestrator, created bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.orch != nil {
		logger.Component("persistence").Warn("persistence already initialized, discarding duplicate")
		return h.orch, false
	}
	if opts.Disabled {
		logger.Component("persistence").Warn("data persistence is currently disabled")
	}
	h.orch = NewOrchestrator(opts)
	return h.orch, true
}

func (h *Host) Orchestrator() *Orchestrator {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.orch
}
