package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-workflow/internal/domain"
)

func TestNewTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		actions []ActionConfig
		wantErr string
	}{
		{
			name:    "valid table",
			actions: []ActionConfig{{ID: "VIEW"}, {ID: "SEND", Stage: domain.StageEditorial}},
		},
		{
			name:    "empty id rejected",
			actions: []ActionConfig{{ID: ""}},
			wantErr: "empty id",
		},
		{
			name:    "duplicate id rejected",
			actions: []ActionConfig{{ID: "VIEW"}, {ID: "VIEW"}},
			wantErr: "duplicate action",
		},
		{
			name:    "unknown stage rejected",
			actions: []ActionConfig{{ID: "SEND", Stage: domain.Stage("NOWHERE")}},
			wantErr: "unknown stage",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table, err := NewTransitionTable(tc.actions)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, table.Known("VIEW"))
		})
	}
}

func TestLoadTransitionTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transitions.json")
	content := `[
        {"id": "CREATE"},
        {"id": "VIEW"},
        {"id": "TO_REVIEW", "stage": "EDITORIAL"},
        {"id": "TO_FINAL", "stage": "APPROVAL"}
    ]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadTransitionTable(path)
	require.NoError(t, err)

	stage, ok := table.TargetStage("TO_REVIEW")
	require.True(t, ok)
	assert.Equal(t, domain.StageEditorial, stage)

	_, ok = table.TargetStage("VIEW")
	assert.False(t, ok)
	assert.True(t, table.Known("VIEW"))
	assert.False(t, table.Known("MISSING"))
}

func TestLoadTransitionTableMissingFile(t *testing.T) {
	_, err := LoadTransitionTable(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDefaultTransitionTableCoversAllStages(t *testing.T) {
	table := DefaultTransitionTable()
	seen := map[domain.Stage]bool{}
	for _, action := range table.Actions() {
		if action.Stage != "" {
			seen[action.Stage] = true
		}
	}
	for _, stage := range []domain.Stage{
		domain.StageEditorial,
		domain.StageSynthesis,
		domain.StageUpdate,
		domain.StageApproval,
	} {
		assert.True(t, seen[stage], "no action targets %s", stage)
	}
}
