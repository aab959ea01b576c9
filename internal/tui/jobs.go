package tui

import (
	"sync"

	"github.com/thereceipt/print-agent/internal/dispatch"
)

// JobHistory keeps the most recent print outcomes, newest first
type JobHistory struct {
	mu       sync.Mutex
	outcomes []dispatch.Outcome
	max      int
	printed  int
	failed   int
}

// NewJobHistory creates a history holding at most max outcomes.
func NewJobHistory(max int) *JobHistory {
	if max <= 0 {
		max = 50
	}
	return &JobHistory{max: max}
}

// Add records an outcome
func (h *JobHistory) Add(o dispatch.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.outcomes = append([]dispatch.Outcome{o}, h.outcomes...)
	if len(h.outcomes) > h.max {
		h.outcomes = h.outcomes[:h.max]
	}
	if o.Err != nil {
		h.failed++
	} else {
		h.printed++
	}
}

// Recent returns a copy of the kept outcomes, newest first
func (h *JobHistory) Recent() []dispatch.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]dispatch.Outcome(nil), h.outcomes...)
}

// Counts returns how many jobs printed and failed since start, including
// ones no longer kept
func (h *JobHistory) Counts() (printed, failed int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.printed, h.failed
}

func statusIcon(o dispatch.Outcome) string {
	if o.Err != nil {
		return "❌"
	}
	return "✅"
}
