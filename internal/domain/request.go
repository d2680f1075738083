package domain

import "time"

// Stage enumerates lifecycle phases for requests.
type Stage string

const (
	StageCreated   Stage = "CREATED"
	StageEditorial Stage = "EDITORIAL"
	StageSynthesis Stage = "SYNTHESIS"
	StageUpdate    Stage = "UPDATE"
	StageApproval  Stage = "APPROVAL"
)

// Valid reports whether the stage is a known lifecycle phase.
func (s Stage) Valid() bool {
	switch s {
	case StageCreated, StageEditorial, StageSynthesis, StageUpdate, StageApproval:
		return true
	}
	return false
}

// Priority bounds for requests.
const (
	PriorityMin = 1
	PriorityMax = 3
)

// Request is the aggregate routed through the workflow.
type Request struct {
	ID              string
	Title           string
	Content         string
	Priority        int
	CategoryID      string
	Status          Stage
	CurrentHolderID string
	// Version equals the number of history records and backs the
	// optimistic concurrency check on forward.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	History   []ProcessRecord
}

// LastRecord returns the newest history entry, or nil when history is empty.
func (r *Request) LastRecord() *ProcessRecord {
	if len(r.History) == 0 {
		return nil
	}
	return &r.History[len(r.History)-1]
}
