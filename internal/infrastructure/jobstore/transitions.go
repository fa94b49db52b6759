package jobstore

import "github.com/arabella/vidforge/internal/domain/entity"

// allowedTransitions is the job status transition table. A from/to pair
// absent from this map (or mapping to false) is rejected.
var allowedTransitions = map[entity.JobStatus]map[entity.JobStatus]bool{
	entity.JobStatusPendingClarification: {
		entity.JobStatusPendingConfirmation: true,
		entity.JobStatusQueued:              true,
		entity.JobStatusActive:              true,
		entity.JobStatusCancelled:           true,
	},
	entity.JobStatusPendingConfirmation: {
		entity.JobStatusQueued:    true,
		entity.JobStatusActive:    true,
		entity.JobStatusCancelled: true,
	},
	entity.JobStatusQueued: {
		entity.JobStatusActive:    true,
		entity.JobStatusCancelled: true,
	},
	entity.JobStatusActive: {
		entity.JobStatusCompleted: true,
		entity.JobStatusFailed:    true,
		entity.JobStatusCancelled: true,
	},
	entity.JobStatusFailed: {
		entity.JobStatusCancelled: true,
		entity.JobStatusRetrying:  true,
	},
	entity.JobStatusRetrying: {
		entity.JobStatusPendingClarification: true,
		entity.JobStatusQueued:               true,
		entity.JobStatusCancelled:             true,
	},
}

// isValidTransition reports whether from → to is permitted by the
// transition table. Terminal statuses (completed, cancelled) permit no
// further transition.
func isValidTransition(from, to entity.JobStatus) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}
