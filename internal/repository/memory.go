package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-workflow/internal/domain"
)

// In-memory implementations back the service when POSTGRES_DSN is not
// configured and serve as the seam for package tests. They honor the same
// sentinel errors as the Postgres implementations: pgx.ErrNoRows for unknown
// ids and ErrVersionConflict for a missed optimistic check.

type memoryRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.Request
}

// NewMemoryRequestRepository returns an in-memory request store.
func NewMemoryRequestRepository() RequestRepository {
	return &memoryRequestRepository{requests: make(map[string]*domain.Request)}
}

func (r *memoryRequestRepository) Create(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if request.UpdatedAt.IsZero() {
		request.UpdatedAt = request.CreatedAt
	}
	r.requests[request.ID] = cloneRequest(request)
	return nil
}

func (r *memoryRequestRepository) UpdateFields(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[request.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = request.Title
	stored.Content = request.Content
	stored.Priority = request.Priority
	stored.CategoryID = request.CategoryID
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRequestRepository) AppendForward(_ context.Context, request *domain.Request, record *domain.ProcessRecord, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[request.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	stored.Status = request.Status
	stored.CurrentHolderID = request.CurrentHolderID
	stored.Version++
	stored.UpdatedAt = time.Now()
	stored.History = append(stored.History, *record)
	return nil
}

func (r *memoryRequestRepository) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneRequest(stored), nil
}

func (r *memoryRequestRepository) List(_ context.Context, filter RequestFilter) ([]domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Request
	for _, stored := range r.requests {
		if filter.Stage != nil && stored.Status != *filter.Stage {
			continue
		}
		if filter.HolderID != nil && stored.CurrentHolderID != *filter.HolderID {
			continue
		}
		result = append(result, *cloneRequest(stored))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memoryRequestRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.requests, id)
	return nil
}

func cloneRequest(request *domain.Request) *domain.Request {
	clone := *request
	clone.History = append([]domain.ProcessRecord(nil), request.History...)
	return &clone
}

type memoryDuplicateRepository struct {
	mu     sync.RWMutex
	groups map[string]string // request id -> group id
}

// NewMemoryDuplicateRepository returns an in-memory duplicate store.
func NewMemoryDuplicateRepository() DuplicateRepository {
	return &memoryDuplicateRepository{groups: make(map[string]string)}
}

func (r *memoryDuplicateRepository) GroupID(_ context.Context, requestID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groupID, ok := r.groups[requestID]
	return groupID, ok, nil
}

func (r *memoryDuplicateRepository) Members(_ context.Context, groupID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var members []string
	for requestID, gid := range r.groups {
		if gid == groupID {
			members = append(members, requestID)
		}
	}
	sort.Strings(members)
	return members, nil
}

func (r *memoryDuplicateRepository) Assign(_ context.Context, requestID, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[requestID] = groupID
	return nil
}

func (r *memoryDuplicateRepository) Merge(_ context.Context, fromGroupID, toGroupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for requestID, gid := range r.groups {
		if gid == fromGroupID {
			r.groups[requestID] = toGroupID
		}
	}
	return nil
}

func (r *memoryDuplicateRepository) Remove(_ context.Context, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, requestID)
	return nil
}

type memoryUserRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.User
	names map[string]string // username -> id
}

// NewMemoryUserRepository returns an in-memory user store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:  make(map[string]*domain.User),
		names: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.byID[user.ID] = &clone
	r.names[user.Username] = user.ID
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *r.byID[id]
	return &clone, nil
}
