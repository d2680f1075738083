package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-workflow/internal/domain"
)

func TestForwardHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.requests.Create(ctx, "p1", validInput())
	require.NoError(t, err)

	forwarded, err := f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
		TargetPersonID: "p2",
		ActionID:       "SEND_TO_EDITORIAL",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageEditorial, forwarded.Status)
	assert.Equal(t, "p2", forwarded.CurrentHolderID)
	assert.Equal(t, int64(2), forwarded.Version)
	require.Len(t, forwarded.History, 2)
	assert.Equal(t, "p2", forwarded.History[1].PersonID)
	assert.Equal(t, "SEND_TO_EDITORIAL", forwarded.History[1].ActionID)
}

// A prior CREATE does not lock the initiator; only a prior VIEW does. The
// two guard paths must be distinguishable.
func TestForwardAfterCreateIsNotLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.requests.Create(ctx, "p1", validInput())
	require.NoError(t, err)

	_, err = f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
		TargetPersonID: "p2",
		ActionID:       "SEND_TO_EDITORIAL",
	})
	require.NoError(t, err)

	// p1's last own action is CREATE, not VIEW: forwarding again is legal
	// workflow-wise (it fails on version only if stale, so pass the fresh one).
	again, err := f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
		TargetPersonID: "p3",
		ActionID:       "SEND_TO_SYNTHESIS",
		Version:        2,
	})
	require.NoError(t, err)
	assert.Equal(t, "p3", again.CurrentHolderID)
	assert.Len(t, again.History, 3)
}

func TestForwardViewLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.requests.Create(ctx, "p1", validInput())
	require.NoError(t, err)

	// p2 receives the request with a passive view; their turn is over.
	_, err = f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
		TargetPersonID: "p2",
		ActionID:       domain.ActionView,
	})
	require.NoError(t, err)

	_, err = f.forwards.Forward(ctx, "p2", created.ID, ForwardInput{
		TargetPersonID: "p3",
		ActionID:       "SEND_TO_EDITORIAL",
	})
	require.Error(t, err)
	assert.Equal(t, "LOCKED", errCode(t, err))

	// A different initiator is unaffected.
	_, err = f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
		TargetPersonID: "p3",
		ActionID:       "SEND_TO_EDITORIAL",
	})
	assert.NoError(t, err)
}

func TestForwardValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.requests.Create(ctx, "p1", validInput())
	require.NoError(t, err)

	tests := []struct {
		name      string
		initiator string
		requestID string
		input     ForwardInput
		wantCode  string
	}{
		{
			name:      "self forward",
			initiator: "p1",
			requestID: created.ID,
			input:     ForwardInput{TargetPersonID: "p1", ActionID: "SEND_TO_EDITORIAL"},
			wantCode:  "VALIDATION_FAILED",
		},
		{
			name:      "unknown action",
			initiator: "p1",
			requestID: created.ID,
			input:     ForwardInput{TargetPersonID: "p2", ActionID: "TELEPORT"},
			wantCode:  "VALIDATION_FAILED",
		},
		{
			name:      "missing target",
			initiator: "p1",
			requestID: created.ID,
			input:     ForwardInput{ActionID: "SEND_TO_EDITORIAL"},
			wantCode:  "VALIDATION_FAILED",
		},
		{
			name:      "unknown request",
			initiator: "p1",
			requestID: "missing",
			input:     ForwardInput{TargetPersonID: "p2", ActionID: "SEND_TO_EDITORIAL"},
			wantCode:  "NOT_FOUND",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.forwards.Forward(ctx, tc.initiator, tc.requestID, tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, errCode(t, err))
		})
	}
}

func TestForwardStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.requests.Create(ctx, "p1", validInput())
	require.NoError(t, err)

	_, err = f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
		TargetPersonID: "p2",
		ActionID:       "SEND_TO_EDITORIAL",
		Version:        1,
	})
	require.NoError(t, err)

	// Version 1 was already consumed.
	_, err = f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
		TargetPersonID: "p3",
		ActionID:       "SEND_TO_SYNTHESIS",
		Version:        1,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestForwardHistoryGrowsByOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.requests.Create(ctx, "p1", validInput())
	require.NoError(t, err)

	hops := []struct {
		initiator string
		target    string
		action    string
	}{
		{"p1", "p2", "SEND_TO_EDITORIAL"},
		{"p2", "p3", "SEND_TO_SYNTHESIS"},
		{"p3", "p4", "SEND_TO_UPDATE"},
		{"p4", "p5", "SEND_TO_APPROVAL"},
	}

	prevLen := 1
	for _, hop := range hops {
		forwarded, err := f.forwards.Forward(ctx, hop.initiator, created.ID, ForwardInput{
			TargetPersonID: hop.target,
			ActionID:       hop.action,
		})
		require.NoError(t, err)
		require.Len(t, forwarded.History, prevLen+1)
		assert.Equal(t, forwarded.CurrentHolderID, forwarded.History[len(forwarded.History)-1].PersonID)
		prevLen = len(forwarded.History)
	}

	final, err := f.requests.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageApproval, final.Status)
	assert.Equal(t, "p5", final.CurrentHolderID)
}

func TestConcurrentForwardSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.requests.Create(ctx, "p1", validInput())
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.forwards.Forward(ctx, "p1", created.ID, ForwardInput{
				TargetPersonID: "p2",
				ActionID:       "SEND_TO_EDITORIAL",
				Version:        1,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, "CONFLICT", errCode(t, err))
		}
	}
	assert.Equal(t, 1, winners)

	final, err := f.requests.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, final.History, 2)
	assert.Equal(t, int64(2), final.Version)
}
