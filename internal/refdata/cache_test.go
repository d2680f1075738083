package refdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-workflow/internal/config"
	"github.com/spec-kit/request-workflow/internal/domain"
	apperrors "github.com/spec-kit/request-workflow/pkg/util"
)

func upstream(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/categories", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"cat1","displayName":"Môi trường"},{"id":"cat2","displayName":"Giao thông"}]}`))
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"p1","username":"user1","displayName":"User One"}]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestCache(baseURL string) *Cache {
	client := NewClient(config.RefdataConfig{BaseURL: baseURL, TimeoutSeconds: 2})
	return NewCache(client, nil, time.Minute, nil)
}

func TestCacheFetchesUpstream(t *testing.T) {
	var hits atomic.Int64
	server := upstream(t, &hits)
	cache := newTestCache(server.URL)
	ctx := context.Background()

	categories, err := cache.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "cat1", categories[0].ID)

	people, err := cache.People(ctx)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "user1", people[0].Username)
}

func TestCacheServesSnapshotWhenUpstreamDies(t *testing.T) {
	var hits atomic.Int64
	server := upstream(t, &hits)
	cache := newTestCache(server.URL)
	ctx := context.Background()

	_, err := cache.Categories(ctx)
	require.NoError(t, err)

	server.Close()

	categories, err := cache.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestCacheTransportError(t *testing.T) {
	cache := newTestCache("http://127.0.0.1:1")
	_, err := cache.Categories(context.Background())
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TRANSPORT_FAILED", domainErr.Code)
}

func TestCategoryNameFallsBackToID(t *testing.T) {
	var hits atomic.Int64
	server := upstream(t, &hits)
	cache := newTestCache(server.URL)
	ctx := context.Background()

	assert.Equal(t, "Môi trường", cache.CategoryName(ctx, "cat1"))
	assert.Equal(t, "cat9", cache.CategoryName(ctx, "cat9"))
}

func TestSeedActionsWithoutUpstream(t *testing.T) {
	cache := newTestCache("")
	cache.SeedActions([]domain.Action{{ID: "VIEW", DisplayName: "Xem"}})

	actions, err := cache.Actions(context.Background())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Xem", actions[0].DisplayName)
}
