package workflow

import "github.com/spec-kit/request-workflow/internal/domain"

// HolderLocked reports whether the caller is view-locked on a request.
// The guard inspects only the caller's own most recent history record: a
// passive "view" ends that holder's turn, while another person's view must
// never lock the caller out.
func HolderLocked(history []domain.ProcessRecord, callerID string) bool {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].PersonID != callerID {
			continue
		}
		return history[i].ActionID == domain.ActionView
	}
	return false
}

// StageOf classifies a request into a stage as a pure function of its
// history: starting at CREATED, each record whose action the table maps
// overrides the stage, so the last mapped record wins.
func StageOf(history []domain.ProcessRecord, table *TransitionTable) domain.Stage {
	stage := domain.StageCreated
	for _, record := range history {
		if target, ok := table.TargetStage(record.ActionID); ok {
			stage = target
		}
	}
	return stage
}
