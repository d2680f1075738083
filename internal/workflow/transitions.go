package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spec-kit/request-workflow/internal/domain"
)

// ActionConfig is one entry of the externally configured action table.
// Stage is empty for actions that do not move the request.
type ActionConfig struct {
	ID    string       `json:"id"`
	Stage domain.Stage `json:"stage,omitempty"`
}

// TransitionTable maps action identifiers to target stages. The mapping is
// configuration data, not business logic: new stages and actions are added by
// editing the table, not the router.
type TransitionTable struct {
	targets map[string]domain.Stage
	known   map[string]struct{}
}

// NewTransitionTable builds a table from action configs.
func NewTransitionTable(actions []ActionConfig) (*TransitionTable, error) {
	table := &TransitionTable{
		targets: make(map[string]domain.Stage, len(actions)),
		known:   make(map[string]struct{}, len(actions)),
	}
	for _, action := range actions {
		if action.ID == "" {
			return nil, fmt.Errorf("action config with empty id")
		}
		if _, dup := table.known[action.ID]; dup {
			return nil, fmt.Errorf("duplicate action config %q", action.ID)
		}
		table.known[action.ID] = struct{}{}
		if action.Stage == "" {
			continue
		}
		if !action.Stage.Valid() {
			return nil, fmt.Errorf("action %q maps to unknown stage %q", action.ID, action.Stage)
		}
		table.targets[action.ID] = action.Stage
	}
	return table, nil
}

// LoadTransitionTable reads action configs from a JSON file.
func LoadTransitionTable(path string) (*TransitionTable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transition table: %w", err)
	}
	var actions []ActionConfig
	if err := json.Unmarshal(content, &actions); err != nil {
		return nil, fmt.Errorf("parse transition table: %w", err)
	}
	return NewTransitionTable(actions)
}

// DefaultTransitionTable returns the built-in action set used when no
// external table is configured.
func DefaultTransitionTable() *TransitionTable {
	table, err := NewTransitionTable([]ActionConfig{
		{ID: domain.ActionCreate},
		{ID: domain.ActionView},
		{ID: domain.ActionEdit},
		{ID: "SEND_TO_EDITORIAL", Stage: domain.StageEditorial},
		{ID: "SEND_TO_SYNTHESIS", Stage: domain.StageSynthesis},
		{ID: "SEND_TO_UPDATE", Stage: domain.StageUpdate},
		{ID: "SEND_TO_APPROVAL", Stage: domain.StageApproval},
	})
	if err != nil {
		panic(err)
	}
	return table
}

// TargetStage returns the stage an action moves a request to, if any.
func (t *TransitionTable) TargetStage(actionID string) (domain.Stage, bool) {
	stage, ok := t.targets[actionID]
	return stage, ok
}

// Known reports whether the action identifier exists in the table.
func (t *TransitionTable) Known(actionID string) bool {
	_, ok := t.known[actionID]
	return ok
}

// Actions returns the configured action identifiers.
func (t *TransitionTable) Actions() []ActionConfig {
	actions := make([]ActionConfig, 0, len(t.known))
	for id := range t.known {
		actions = append(actions, ActionConfig{ID: id, Stage: t.targets[id]})
	}
	return actions
}
