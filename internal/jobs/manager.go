package jobs

import (
	"errors"
	"fmt"
	"sync"

	"cad-archiver/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// Manager tracks the single allowed active job and its transitions.
// There is no cancellation: a started job runs to done or failed.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// Start creates a new job and moves it to extracting state.
func (m *Manager) Start(jobID string, kind domain.JobKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isRunning(m.current.Status) {
		return ErrJobAlreadyRunning
	}

	m.current = domain.Job{
		ID:     jobID,
		Kind:   kind,
		Status: domain.JobStatusExtracting,
	}
	return nil
}

// Transition validates and applies state transitions for current job.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Kind, m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears job metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Status: domain.JobStatusIdle}
}

// IsRunning reports whether the current state is an active stage.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// isRunning checks if a status represents active pipeline execution.
func isRunning(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusExtracting, domain.JobStatusPacking, domain.JobStatusRebuilding:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed job state machine edges. The
// compress path packs after extraction, the restore path rebuilds.
func isValidTransition(kind domain.JobKind, from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusIdle:
		return to == domain.JobStatusExtracting
	case domain.JobStatusExtracting:
		switch to {
		case domain.JobStatusPacking:
			return kind == domain.JobKindCompress
		case domain.JobStatusRebuilding:
			return kind == domain.JobKindRestore
		case domain.JobStatusFailed:
			return true
		default:
			return false
		}
	case domain.JobStatusPacking, domain.JobStatusRebuilding:
		return to == domain.JobStatusDone || to == domain.JobStatusFailed
	case domain.JobStatusDone, domain.JobStatusFailed:
		return to == domain.JobStatusExtracting || to == domain.JobStatusIdle
	default:
		return false
	}
}
