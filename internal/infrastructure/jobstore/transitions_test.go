package jobstore

import (
	"testing"

	"github.com/arabella/vidforge/internal/domain/entity"
)

func TestIsValidTransition_AllowedPairs(t *testing.T) {
	cases := []struct {
		from entity.JobStatus
		to   entity.JobStatus
	}{
		{entity.JobStatusPendingClarification, entity.JobStatusQueued},
		{entity.JobStatusPendingClarification, entity.JobStatusPendingConfirmation},
		{entity.JobStatusPendingConfirmation, entity.JobStatusActive},
		{entity.JobStatusQueued, entity.JobStatusActive},
		{entity.JobStatusActive, entity.JobStatusCompleted},
		{entity.JobStatusActive, entity.JobStatusFailed},
		{entity.JobStatusFailed, entity.JobStatusRetrying},
		{entity.JobStatusRetrying, entity.JobStatusPendingClarification},
		{entity.JobStatusRetrying, entity.JobStatusQueued},
	}

	for _, tc := range cases {
		if !isValidTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}
}

func TestIsValidTransition_RejectsTerminalAndSkips(t *testing.T) {
	cases := []struct {
		from entity.JobStatus
		to   entity.JobStatus
	}{
		{entity.JobStatusCompleted, entity.JobStatusQueued},
		{entity.JobStatusCancelled, entity.JobStatusActive},
		{entity.JobStatusQueued, entity.JobStatusPendingClarification},
		{entity.JobStatusPendingConfirmation, entity.JobStatusPendingClarification},
		{entity.JobStatusFailed, entity.JobStatusActive},
		{entity.JobStatusFailed, entity.JobStatusCompleted},
	}

	for _, tc := range cases {
		if isValidTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestIsValidTransition_UnknownFromStatus(t *testing.T) {
	if isValidTransition(entity.JobStatus("bogus"), entity.JobStatusQueued) {
		t.Error("expected an unknown from-status to reject every transition")
	}
}
