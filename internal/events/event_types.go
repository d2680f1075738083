package events

import (
	"time"

	"github.com/spec-kit/request-workflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated   EventType = "request_created"
	EventRequestUpdated   EventType = "request_updated"
	EventRequestForwarded EventType = "request_forwarded"
	EventRequestRemoved   EventType = "request_removed"
	EventDuplicateMarked  EventType = "duplicate_marked"
	EventDuplicateCleared EventType = "duplicate_cleared"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	PersonID  string      `json:"person_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Title      string `json:"title"`
	Priority   int    `json:"priority"`
	CategoryID string `json:"category_id"`
}

// RequestForwardedPayload payload.
type RequestForwardedPayload struct {
	TargetPersonID string       `json:"target_person_id"`
	ActionID       string       `json:"action_id"`
	OldStage       domain.Stage `json:"old_stage"`
	NewStage       domain.Stage `json:"new_stage"`
	HistoryLength  int          `json:"history_length"`
}

// DuplicateMarkedPayload payload.
type DuplicateMarkedPayload struct {
	OfRequestID string   `json:"of_request_id"`
	GroupID     string   `json:"group_id"`
	Members     []string `json:"members"`
}
