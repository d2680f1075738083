package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-workflow/internal/domain"
)

func seedRequest(t *testing.T, repo RequestRepository) *domain.Request {
	t.Helper()
	now := time.Now()
	request := &domain.Request{
		ID:              "r1",
		Title:           "T",
		Content:         "C",
		Priority:        2,
		CategoryID:      "cat1",
		Status:          domain.StageCreated,
		CurrentHolderID: "p1",
		Version:         1,
		CreatedAt:       now,
		History: []domain.ProcessRecord{{
			ID:        "rec1",
			RequestID: "r1",
			PersonID:  "p1",
			ActionID:  domain.ActionCreate,
			Timestamp: now,
		}},
	}
	require.NoError(t, repo.Create(context.Background(), request))
	return request
}

func TestMemoryAppendForwardVersionCheck(t *testing.T) {
	repo := NewMemoryRequestRepository()
	ctx := context.Background()
	request := seedRequest(t, repo)

	request.Status = domain.StageEditorial
	request.CurrentHolderID = "p2"
	record := &domain.ProcessRecord{
		ID:        "rec2",
		RequestID: request.ID,
		PersonID:  "p2",
		ActionID:  "SEND_TO_EDITORIAL",
		Timestamp: time.Now(),
	}

	require.NoError(t, repo.AppendForward(ctx, request, record, 1))

	// The consumed version must not be reusable.
	err := repo.AppendForward(ctx, request, record, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Len(t, stored.History, 2)
	assert.Equal(t, domain.StageEditorial, stored.Status)
}

func TestMemoryAppendForwardUnknownID(t *testing.T) {
	repo := NewMemoryRequestRepository()
	err := repo.AppendForward(context.Background(), &domain.Request{ID: "nope"}, &domain.ProcessRecord{}, 1)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	repo := NewMemoryRequestRepository()
	ctx := context.Background()
	seedRequest(t, repo)

	first, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	first.Title = "mutated"
	first.History[0].ActionID = "mutated"

	second, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "T", second.Title)
	assert.Equal(t, domain.ActionCreate, second.History[0].ActionID)
}

func TestMemoryListFilters(t *testing.T) {
	repo := NewMemoryRequestRepository()
	ctx := context.Background()
	seedRequest(t, repo)

	stage := domain.StageCreated
	list, err := repo.List(ctx, RequestFilter{Stage: &stage})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	other := domain.StageApproval
	list, err = repo.List(ctx, RequestFilter{Stage: &other})
	require.NoError(t, err)
	assert.Empty(t, list)

	holder := "p1"
	list, err = repo.List(ctx, RequestFilter{HolderID: &holder})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryDuplicateRepository(t *testing.T) {
	repo := NewMemoryDuplicateRepository()
	ctx := context.Background()

	_, grouped, err := repo.GroupID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, grouped)

	require.NoError(t, repo.Assign(ctx, "a", "g1"))
	require.NoError(t, repo.Assign(ctx, "b", "g1"))
	require.NoError(t, repo.Assign(ctx, "c", "g2"))

	members, err := repo.Members(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, members)

	require.NoError(t, repo.Merge(ctx, "g2", "g1"))
	members, err = repo.Members(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, members)

	require.NoError(t, repo.Remove(ctx, "b"))
	members, err = repo.Members(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, members)
}

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user := &domain.User{
		ID:           "u1",
		Username:     "user1",
		FullName:     "User One",
		PasswordHash: "hash",
		Status:       domain.UserStatusActive,
	}
	require.NoError(t, repo.Create(ctx, user))

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "user1", byID.Username)

	byName, err := repo.GetByUsername(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
