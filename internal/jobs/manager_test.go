package jobs

import (
	"testing"

	"cad-archiver/internal/domain"
)

// TestManagerCompressLifecycle verifies normal progression to done state.
func TestManagerCompressLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsRunning() {
		t.Fatal("new manager should be idle")
	}

	if err := m.Start("job-1", domain.JobKindCompress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("expected running after start")
	}
	if m.Current().Status != domain.JobStatusExtracting {
		t.Fatalf("status = %s, want extracting", m.Current().Status)
	}

	for _, status := range []domain.JobStatus{
		domain.JobStatusPacking,
		domain.JobStatusDone,
	} {
		if err := m.Transition(status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	current := m.Current()
	if current.Status != domain.JobStatusDone {
		t.Fatalf("current status = %s, want done", current.Status)
	}
	if m.IsRunning() {
		t.Fatal("done job should not report running")
	}
}

// TestManagerRestoreLifecycle verifies the rebuild path transitions.
func TestManagerRestoreLifecycle(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1", domain.JobKindRestore); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Transition(domain.JobStatusRebuilding); err != nil {
		t.Fatalf("transition to rebuilding: %v", err)
	}
	if err := m.Transition(domain.JobStatusDone); err != nil {
		t.Fatalf("transition to done: %v", err)
	}
}

// TestManagerRejectsCrossKindTransitions checks packing is compress-only
// and rebuilding is restore-only.
func TestManagerRejectsCrossKindTransitions(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1", domain.JobKindRestore); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Transition(domain.JobStatusPacking); err == nil {
		t.Fatal("restore job must not enter packing")
	}

	m.Reset()
	if err := m.Start("job-2", domain.JobKindCompress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Transition(domain.JobStatusRebuilding); err == nil {
		t.Fatal("compress job must not enter rebuilding")
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1", domain.JobKindCompress); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Transition(domain.JobStatusDone); err == nil {
		t.Fatal("expected invalid transition error")
	}
}

// TestManagerEnforcesSingleActiveJob checks the second start is rejected.
func TestManagerEnforcesSingleActiveJob(t *testing.T) {
	m := NewManager()
	if err := m.Start("job-1", domain.JobKindCompress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start("job-2", domain.JobKindRestore); err != ErrJobAlreadyRunning {
		t.Fatalf("second start error = %v, want %v", err, ErrJobAlreadyRunning)
	}

	if err := m.Transition(domain.JobStatusFailed); err != nil {
		t.Fatalf("transition to failed: %v", err)
	}
	if err := m.Start("job-3", domain.JobKindRestore); err != nil {
		t.Fatalf("start after failure: %v", err)
	}
}
