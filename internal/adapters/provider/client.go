// Package provider fetches the rider and race catalog from the data provider.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/peloton/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 10 * time.Second

// Provider endpoints, relative to the base URL.
const (
	ridersPath = "/api/riders"
	racesPath  = "/api/races"
	solvePath  = "/api/solve"
)

// Client talks to the data provider over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the provider at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the provider origin.
func (c *Client) BaseURL() string { return c.baseURL }

// Load fetches riders and races concurrently. Both requests must succeed and
// decode; the first failure cancels the other and nothing is returned.
func (c *Client) Load(ctx context.Context) ([]model.Rider, []model.Race, error) {
	var (
		riders []model.Rider
		races  []model.Race
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return c.get(egCtx, ridersPath, &riders)
	})
	eg.Go(func() error {
		return c.get(egCtx, racesPath, &races)
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	if riders == nil {
		riders = []model.Rider{}
	}
	if races == nil {
		races = []model.Race{}
	}
	return riders, races, nil
}

// Solve asks the provider for its per-race plan over the full catalog.
func (c *Client) Solve(ctx context.Context) (model.Solution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+solvePath, bytes.NewReader([]byte("{}")))
	if err != nil {
		return model.Solution{}, fmt.Errorf("%w: %w", ErrSolve, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var sol model.Solution
	if err := c.do(req, &sol); err != nil {
		return model.Solution{}, fmt.Errorf("%w: %w", ErrSolve, err)
	}
	if sol.Error != "" {
		return model.Solution{}, fmt.Errorf("%w: %s", ErrSolve, sol.Error)
	}
	return sol, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFetch, path, err)
	}
	if err := c.do(req, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: unexpected status code %d", ErrFetch, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
