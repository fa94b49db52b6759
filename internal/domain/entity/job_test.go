package entity

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewJob_StartsInPendingClarification(t *testing.T) {
	j := NewJob(uuid.New(), "a cat riding a skateboard", "veo-3.0", "veo", nil, 0)

	if j.Status != JobStatusPendingClarification {
		t.Errorf("expected initial status pending_clarification, got %s", j.Status)
	}
	if j.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected MaxRetries=%d, got %d", DefaultMaxRetries, j.MaxRetries)
	}
	if j.RetryCount != 0 {
		t.Errorf("expected RetryCount=0, got %d", j.RetryCount)
	}
}

func TestJob_CanBeCancelled(t *testing.T) {
	cases := []struct {
		status    JobStatus
		cancelOK  bool
	}{
		{JobStatusPendingClarification, true},
		{JobStatusPendingConfirmation, true},
		{JobStatusQueued, true},
		{JobStatusActive, true},
		{JobStatusFailed, true},
		{JobStatusRetrying, true},
		{JobStatusCompleted, false},
		{JobStatusCancelled, false},
	}

	for _, tc := range cases {
		j := &Job{Status: tc.status}
		if got := j.CanBeCancelled(); got != tc.cancelOK {
			t.Errorf("status %s: CanBeCancelled() = %v, want %v", tc.status, got, tc.cancelOK)
		}
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusCancelled}
	nonTerminal := []JobStatus{
		JobStatusPendingClarification, JobStatusPendingConfirmation,
		JobStatusQueued, JobStatusActive, JobStatusFailed, JobStatusRetrying,
	}

	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}
