package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spec-kit/request-workflow/internal/config"
	"github.com/spec-kit/request-workflow/internal/domain"
	apperrors "github.com/spec-kit/request-workflow/pkg/util"
)

// Client fetches reference lists from the upstream reference-data service.
// Timeouts and unreachability surface as TRANSPORT_FAILED so callers can
// retry with backoff.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client from config. An empty base URL disables
// upstream fetches; the cache then serves its seed data only.
func NewClient(cfg config.RefdataConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout()},
	}
}

// Enabled reports whether an upstream is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Categories fetches the category list.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.fetch(ctx, "/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// People fetches the people list.
func (c *Client) People(ctx context.Context) ([]domain.Person, error) {
	var out []domain.Person
	if err := c.fetch(ctx, "/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Actions fetches the action taxonomy.
func (c *Client) Actions(ctx context.Context) ([]domain.Action, error) {
	var out []domain.Action
	if err := c.fetch(ctx, "/actions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperrors.MapError(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransport("reference data service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewTransport(fmt.Sprintf("reference data service returned %d", resp.StatusCode), nil)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apperrors.NewTransport("malformed reference data response", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperrors.NewTransport("malformed reference data payload", err)
	}
	return nil
}
