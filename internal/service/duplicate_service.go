package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/request-workflow/internal/events"
	"github.com/spec-kit/request-workflow/internal/repository"
	apperrors "github.com/spec-kit/request-workflow/pkg/util"
)

// DuplicateService maintains symmetric duplicate-group membership over
// request ids, independent of stage. Membership is persisted, so groups
// survive restarts.
type DuplicateService struct {
	requests   repository.RequestRepository
	duplicates repository.DuplicateRepository
	dispatcher events.Dispatcher
	locks      *RequestLocks
}

// DuplicateDependencies bundles collaborators for the linker.
type DuplicateDependencies struct {
	RequestRepo   repository.RequestRepository
	DuplicateRepo repository.DuplicateRepository
	Dispatcher    events.Dispatcher
	Locks         *RequestLocks
}

// NewDuplicateService constructs the linker.
func NewDuplicateService(deps DuplicateDependencies) *DuplicateService {
	locks := deps.Locks
	if locks == nil {
		locks = NewRequestLocks()
	}
	return &DuplicateService{
		requests:   deps.RequestRepo,
		duplicates: deps.DuplicateRepo,
		dispatcher: deps.Dispatcher,
		locks:      locks,
	}
}

// MarkDuplicate places requestID in ofRequestID's group. An ungrouped
// request joins (merging transitively); a request already sitting in a
// different group conflicts; marking within the same group is a no-op.
func (s *DuplicateService) MarkDuplicate(ctx context.Context, personID, requestID, ofRequestID string) error {
	if requestID == ofRequestID {
		return apperrors.NewValidationError("a request cannot duplicate itself", map[string]any{
			"request_id": requestID,
		})
	}
	for _, id := range []string{requestID, ofRequestID} {
		if _, err := s.requests.GetByID(ctx, id); err != nil {
			return apperrors.NewValidationError("unknown request", map[string]any{"request_id": id})
		}
	}

	s.locks.LockPair(requestID, ofRequestID)
	defer s.locks.UnlockPair(requestID, ofRequestID)

	ownGroup, ownGrouped, err := s.duplicates.GroupID(ctx, requestID)
	if err != nil {
		return apperrors.MapError(err)
	}
	otherGroup, otherGrouped, err := s.duplicates.GroupID(ctx, ofRequestID)
	if err != nil {
		return apperrors.MapError(err)
	}

	if ownGrouped && otherGrouped && ownGroup == otherGroup {
		return nil
	}
	if ownGrouped {
		return apperrors.NewConflict("request already belongs to another duplicate group", map[string]any{
			"request_id": requestID,
			"group_id":   ownGroup,
		})
	}

	groupID := otherGroup
	if !otherGrouped {
		groupID = uuid.NewString()
		if err := s.duplicates.Assign(ctx, ofRequestID, groupID); err != nil {
			return apperrors.MapError(err)
		}
	}
	if err := s.duplicates.Assign(ctx, requestID, groupID); err != nil {
		return apperrors.MapError(err)
	}

	members, err := s.duplicates.Members(ctx, groupID)
	if err != nil {
		return apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventDuplicateMarked,
		RequestID: requestID,
		PersonID:  personID,
		Payload: events.DuplicateMarkedPayload{
			OfRequestID: ofRequestID,
			GroupID:     groupID,
			Members:     members,
		},
	})
	return nil
}

// ClearDuplicate removes the request from its group without touching its
// siblings. Idempotent: clearing an ungrouped request is a no-op.
func (s *DuplicateService) ClearDuplicate(ctx context.Context, personID, requestID string) error {
	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	groupID, grouped, err := s.duplicates.GroupID(ctx, requestID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !grouped {
		return nil
	}
	if err := s.duplicates.Remove(ctx, requestID); err != nil {
		return apperrors.MapError(err)
	}

	// A group of one is no group at all.
	members, err := s.duplicates.Members(ctx, groupID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(members) == 1 {
		if err := s.duplicates.Remove(ctx, members[0]); err != nil {
			return apperrors.MapError(err)
		}
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventDuplicateCleared,
		RequestID: requestID,
		PersonID:  personID,
	})
	return nil
}

// GroupOf returns the full group including requestID itself, or the
// singleton when ungrouped.
func (s *DuplicateService) GroupOf(ctx context.Context, requestID string) ([]string, error) {
	groupID, grouped, err := s.duplicates.GroupID(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !grouped {
		return []string{requestID}, nil
	}
	members, err := s.duplicates.Members(ctx, groupID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}
