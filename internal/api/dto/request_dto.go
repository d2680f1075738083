package dto

import (
	"time"

	"github.com/spec-kit/request-workflow/internal/domain"
)

// CreateRequestRequest payload. Field names follow the consumer wire format.
type CreateRequestRequest struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedDate time.Time `json:"createdDate"`
	Priority    int       `json:"priority"`
	CategoryID  string    `json:"categoryId"`
}

// UpdateRequestRequest payload.
type UpdateRequestRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Priority   int    `json:"priority"`
	CategoryID string `json:"categoryId"`
}

// ForwardRequest payload.
type ForwardRequest struct {
	PeopleID string `json:"peopleId"`
	ActionID string `json:"actionId"`
	Version  int64  `json:"version,omitempty"`
}

// MarkDuplicateRequest payload.
type MarkDuplicateRequest struct {
	OfRequestID string `json:"ofRequestId"`
}

// ProcessRecordResponse is one audit-trail entry.
type ProcessRecordResponse struct {
	PersonID  string    `json:"personId"`
	ActionID  string    `json:"actionId"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestResponse is the canonical request record.
type RequestResponse struct {
	ID              string                  `json:"id"`
	Title           string                  `json:"title"`
	Content         string                  `json:"content"`
	CreatedAt       time.Time               `json:"createdAt"`
	Priority        int                     `json:"priority"`
	CategoryID      string                  `json:"categoryId"`
	Category        string                  `json:"category,omitempty"`
	Status          domain.Stage            `json:"status"`
	CurrentHolderID string                  `json:"currentHolderId"`
	Version         int64                   `json:"version"`
	History         []ProcessRecordResponse `json:"history"`
}

// DuplicateGroupResponse lists a request's duplicate group.
type DuplicateGroupResponse struct {
	RequestID string   `json:"requestId"`
	Group     []string `json:"group"`
}
