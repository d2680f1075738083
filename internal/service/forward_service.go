package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/request-workflow/internal/domain"
	"github.com/spec-kit/request-workflow/internal/events"
	"github.com/spec-kit/request-workflow/internal/repository"
	"github.com/spec-kit/request-workflow/internal/workflow"
	apperrors "github.com/spec-kit/request-workflow/pkg/util"
)

// ForwardService executes hand-offs: it is the only path that appends history
// and changes stage, and it does both atomically.
type ForwardService struct {
	requests   repository.RequestRepository
	table      *workflow.TransitionTable
	dispatcher events.Dispatcher
	locks      *RequestLocks
}

// ForwardDependencies bundles collaborators for the forwarding router.
type ForwardDependencies struct {
	RequestRepo repository.RequestRepository
	Table       *workflow.TransitionTable
	Dispatcher  events.Dispatcher
	Locks       *RequestLocks
}

// ForwardInput describes a hand-off intent. Version is the history length
// the caller last observed; zero means "use the current version", in which
// case concurrent forwards are still resolved to a single winner by the
// repository's version check.
type ForwardInput struct {
	TargetPersonID string
	ActionID       string
	Version        int64
}

// NewForwardService constructs the router.
func NewForwardService(deps ForwardDependencies) *ForwardService {
	locks := deps.Locks
	if locks == nil {
		locks = NewRequestLocks()
	}
	table := deps.Table
	if table == nil {
		table = workflow.DefaultTransitionTable()
	}
	return &ForwardService{
		requests:   deps.RequestRepo,
		table:      table,
		dispatcher: deps.Dispatcher,
		locks:      locks,
	}
}

// Forward validates the move, appends the process record, hands the request
// to the target and recomputes the stage from the new history.
func (s *ForwardService) Forward(ctx context.Context, initiatorID, requestID string, input ForwardInput) (*domain.Request, error) {
	if input.TargetPersonID == "" {
		return nil, apperrors.NewValidationError("target person required", nil)
	}
	if input.TargetPersonID == initiatorID {
		return nil, apperrors.NewValidationError("cannot forward a request to yourself", map[string]any{
			"request_id": requestID,
		})
	}
	if !s.table.Known(input.ActionID) {
		return nil, apperrors.NewValidationError("unknown action", map[string]any{
			"action_id": input.ActionID,
		})
	}

	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRequestErr(err, requestID)
	}
	if workflow.HolderLocked(request.History, initiatorID) {
		return nil, apperrors.NewLocked("initiator is view-locked on this request", map[string]any{
			"request_id": requestID,
			"person_id":  initiatorID,
			"action_id":  input.ActionID,
		})
	}

	expected := input.Version
	if expected == 0 {
		expected = request.Version
	}
	if expected != request.Version {
		return nil, versionConflict(requestID, expected, request.Version)
	}

	record := domain.ProcessRecord{
		ID:        uuid.NewString(),
		RequestID: requestID,
		PersonID:  input.TargetPersonID,
		ActionID:  input.ActionID,
		Timestamp: time.Now(),
	}
	oldStage := request.Status
	newHistory := append(append([]domain.ProcessRecord(nil), request.History...), record)

	request.CurrentHolderID = input.TargetPersonID
	request.Status = workflow.StageOf(newHistory, s.table)

	if err := s.requests.AppendForward(ctx, request, &record, expected); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, versionConflict(requestID, expected, request.Version)
		}
		return nil, mapRequestErr(err, requestID)
	}
	request.History = newHistory
	request.Version = expected + 1

	s.publish(ctx, events.Event{
		Type:      events.EventRequestForwarded,
		RequestID: requestID,
		PersonID:  initiatorID,
		Payload: events.RequestForwardedPayload{
			TargetPersonID: input.TargetPersonID,
			ActionID:       input.ActionID,
			OldStage:       oldStage,
			NewStage:       request.Status,
			HistoryLength:  len(request.History),
		},
	})
	return request, nil
}

// Table exposes the configured action set for the reference-data surface.
func (s *ForwardService) Table() *workflow.TransitionTable {
	return s.table
}

func (s *ForwardService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func versionConflict(requestID string, observed, current int64) error {
	return apperrors.NewConflict("request was modified concurrently", map[string]any{
		"request_id":       requestID,
		"observed_version": observed,
		"current_version":  current,
	})
}
