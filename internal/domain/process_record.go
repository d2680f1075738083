package domain

import "time"

// Well-known action identifiers. Forwarding actions that move a request to
// another stage are configured externally; these three never change the stage.
const (
	ActionCreate = "CREATE"
	ActionView   = "VIEW"
	ActionEdit   = "EDIT"
)

// ProcessRecord is an immutable audit trail entry. Records are append-only:
// once written they are never mutated or removed.
type ProcessRecord struct {
	ID        string
	RequestID string
	PersonID  string
	ActionID  string
	Timestamp time.Time
}
