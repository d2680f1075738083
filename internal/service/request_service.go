package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-workflow/internal/domain"
	"github.com/spec-kit/request-workflow/internal/events"
	"github.com/spec-kit/request-workflow/internal/repository"
	"github.com/spec-kit/request-workflow/internal/workflow"
	apperrors "github.com/spec-kit/request-workflow/pkg/util"
)

// RequestService owns the canonical request set: create, edit, list, remove.
// Stage and holder changes go through ForwardService only.
type RequestService struct {
	requests   repository.RequestRepository
	duplicates repository.DuplicateRepository
	dispatcher events.Dispatcher
	locks      *RequestLocks
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo   repository.RequestRepository
	DuplicateRepo repository.DuplicateRepository
	Dispatcher    events.Dispatcher
	Locks         *RequestLocks
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	Title      string
	Content    string
	Priority   int
	CategoryID string
	CreatedAt  time.Time
}

// RequestUpdateInput describes the fields mutable by direct edit.
type RequestUpdateInput struct {
	Title      string
	Content    string
	Priority   int
	CategoryID string
}

// RequestListFilter narrows listings to a worklist.
type RequestListFilter struct {
	Stage    *domain.Stage
	HolderID *string
	Limit    int
	Offset   int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	locks := deps.Locks
	if locks == nil {
		locks = NewRequestLocks()
	}
	return &RequestService{
		requests:   deps.RequestRepo,
		duplicates: deps.DuplicateRepo,
		dispatcher: deps.Dispatcher,
		locks:      locks,
	}
}

// Create registers a new request held by its creator. History starts with a
// single CREATE record attributing the creator.
func (s *RequestService) Create(ctx context.Context, creatorID string, input RequestCreateInput) (*domain.Request, error) {
	if err := validateRequestFields(input.Title, input.Content, input.Priority); err != nil {
		return nil, err
	}
	if creatorID == "" {
		return nil, apperrors.NewValidationError("creator required", nil)
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	request := &domain.Request{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(input.Title),
		Content:         strings.TrimSpace(input.Content),
		Priority:        input.Priority,
		CategoryID:      input.CategoryID,
		Status:          domain.StageCreated,
		CurrentHolderID: creatorID,
		Version:         1,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	request.History = []domain.ProcessRecord{{
		ID:        uuid.NewString(),
		RequestID: request.ID,
		PersonID:  creatorID,
		ActionID:  domain.ActionCreate,
		Timestamp: createdAt,
	}}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		PersonID:  creatorID,
		Payload: events.RequestCreatedPayload{
			Title:      request.Title,
			Priority:   request.Priority,
			CategoryID: request.CategoryID,
		},
	})
	return request, nil
}

// Update edits title/content/priority/category. It never touches status,
// holder or history, and appends no process record. A view-locked editor is
// denied like a forward would be.
func (s *RequestService) Update(ctx context.Context, editorID, id string, input RequestUpdateInput) (*domain.Request, error) {
	if err := validateRequestFields(input.Title, input.Content, input.Priority); err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapRequestErr(err, id)
	}
	if workflow.HolderLocked(request.History, editorID) {
		return nil, apperrors.NewLocked("editor is view-locked on this request", map[string]any{
			"request_id": id,
			"person_id":  editorID,
		})
	}

	request.Title = strings.TrimSpace(input.Title)
	request.Content = strings.TrimSpace(input.Content)
	request.Priority = input.Priority
	request.CategoryID = input.CategoryID
	if err := s.requests.UpdateFields(ctx, request); err != nil {
		return nil, mapRequestErr(err, id)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventRequestUpdated,
		RequestID: request.ID,
		PersonID:  editorID,
	})
	return request, nil
}

// Get returns a single request with its full history.
func (s *RequestService) Get(ctx context.Context, id string) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapRequestErr(err, id)
	}
	return request, nil
}

// List returns a snapshot, optionally filtered into a per-stage worklist.
func (s *RequestService) List(ctx context.Context, filter RequestListFilter) ([]domain.Request, error) {
	result, err := s.requests.List(ctx, repository.RequestFilter{
		Stage:    filter.Stage,
		HolderID: filter.HolderID,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// Remove deletes the request, its history and its duplicate membership.
func (s *RequestService) Remove(ctx context.Context, actorID, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if err := s.requests.Delete(ctx, id); err != nil {
		return mapRequestErr(err, id)
	}
	if s.duplicates != nil {
		if err := s.duplicates.Remove(ctx, id); err != nil {
			return apperrors.MapError(err)
		}
	}
	s.publish(ctx, events.Event{
		Type:      events.EventRequestRemoved,
		RequestID: id,
		PersonID:  actorID,
	})
	return nil
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func validateRequestFields(title, content string, priority int) error {
	details := map[string]any{}
	if strings.TrimSpace(title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(content) == "" {
		details["content"] = "required"
	}
	if priority < domain.PriorityMin || priority > domain.PriorityMax {
		details["priority"] = "must be 1, 2 or 3"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid request fields", details)
	}
	return nil
}

func mapRequestErr(err error, requestID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
	}
	return apperrors.MapError(err)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
