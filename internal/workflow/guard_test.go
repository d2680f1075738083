package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/request-workflow/internal/domain"
)

func record(personID, actionID string) domain.ProcessRecord {
	return domain.ProcessRecord{
		PersonID:  personID,
		ActionID:  actionID,
		Timestamp: time.Now(),
	}
}

func TestHolderLocked(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.ProcessRecord
		caller  string
		locked  bool
	}{
		{
			name:    "empty history never locks",
			history: nil,
			caller:  "p1",
			locked:  false,
		},
		{
			name:    "creator is not locked",
			history: []domain.ProcessRecord{record("p1", domain.ActionCreate)},
			caller:  "p1",
			locked:  false,
		},
		{
			name: "own latest view locks",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionCreate),
				record("p2", "SEND_TO_EDITORIAL"),
				record("p2", domain.ActionView),
			},
			caller: "p2",
			locked: true,
		},
		{
			name: "another person's view does not lock the caller",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionCreate),
				record("p2", domain.ActionView),
			},
			caller: "p1",
			locked: false,
		},
		{
			name: "later own action clears an earlier view",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionCreate),
				record("p2", domain.ActionView),
				record("p2", "SEND_TO_SYNTHESIS"),
			},
			caller: "p2",
			locked: false,
		},
		{
			name: "view as first record locks its person",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionView),
			},
			caller: "p1",
			locked: true,
		},
		{
			name: "caller absent from history is not locked",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionCreate),
				record("p2", domain.ActionView),
			},
			caller: "p3",
			locked: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.locked, HolderLocked(tc.history, tc.caller))
		})
	}
}

func TestStageOf(t *testing.T) {
	table := DefaultTransitionTable()

	tests := []struct {
		name    string
		history []domain.ProcessRecord
		want    domain.Stage
	}{
		{
			name:    "empty history is created",
			history: nil,
			want:    domain.StageCreated,
		},
		{
			name:    "create alone stays created",
			history: []domain.ProcessRecord{record("p1", domain.ActionCreate)},
			want:    domain.StageCreated,
		},
		{
			name: "forward to editorial",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionCreate),
				record("p2", "SEND_TO_EDITORIAL"),
			},
			want: domain.StageEditorial,
		},
		{
			name: "last mapped action wins",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionCreate),
				record("p2", "SEND_TO_APPROVAL"),
				record("p3", "SEND_TO_EDITORIAL"),
			},
			want: domain.StageEditorial,
		},
		{
			name: "non-transition actions leave the stage alone",
			history: []domain.ProcessRecord{
				record("p1", domain.ActionCreate),
				record("p2", "SEND_TO_SYNTHESIS"),
				record("p3", domain.ActionView),
				record("p3", domain.ActionEdit),
			},
			want: domain.StageSynthesis,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StageOf(tc.history, table))
		})
	}
}
