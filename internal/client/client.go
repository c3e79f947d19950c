package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/secondary-inference/console/internal/console"
	"github.com/secondary-inference/console/internal/ingest"
	"github.com/secondary-inference/console/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
	Debug     bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
	}
}

// ErrUnauthorized is wrapped by errors for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the console API. Message is the
// server's error string, or a sign-in prompt for 401 responses on list views.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client calls the console JSON API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	debug      bool
}

// New creates a client. Requests carry the token as a bearer credential and
// are traced through otelhttp.
func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		debug: cfg.Debug,
	}
}

// ListSources fetches the caller's sources, newest first.
func (c *Client) ListSources(ctx context.Context) ([]*models.SourceListItem, error) {
	var resp struct {
		Sources []*models.SourceListItem `json:"sources"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sources", nil, &resp, "sources"); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

// CreateSource registers a source under the caller's project.
func (c *Client) CreateSource(ctx context.Context, req *ingest.CreateSourceRequest) (*models.Source, error) {
	var resp struct {
		Source *models.Source `json:"source"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/sources", req, &resp, ""); err != nil {
		return nil, err
	}
	return resp.Source, nil
}

// ListJobs fetches the caller's jobs, newest first.
func (c *Client) ListJobs(ctx context.Context) ([]*models.JobListItem, error) {
	var resp struct {
		Jobs []*models.JobListItem `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/jobs", nil, &resp, "jobs"); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// CreateJob enqueues a job against one of the caller's sources.
func (c *Client) CreateJob(ctx context.Context, req *ingest.CreateJobRequest) (*models.Job, error) {
	var resp struct {
		Job *models.Job `json:"job"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/jobs", req, &resp, ""); err != nil {
		return nil, err
	}
	return resp.Job, nil
}

// SetupDemoData asks the server to seed demo data for the caller.
func (c *Client) SetupDemoData(ctx context.Context) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/setup-demo-data", nil, &resp, ""); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New("demo data setup did not report success")
	}
	return nil
}

// TestSetup seeds demo data and returns the server's diagnostic report.
func (c *Client) TestSetup(ctx context.Context) (*ingest.TestSetupResult, error) {
	var resp ingest.TestSetupResult
	if err := c.do(ctx, http.MethodGet, "/api/test-setup", nil, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs a JSON round trip. view names the list being fetched so a 401
// can be reported as a sign-in prompt.
func (c *Client) do(ctx context.Context, method, path string, body, out any, view string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(started)).
			Msg("api call")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, view)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response, view string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if resp.StatusCode == http.StatusUnauthorized && view != "" {
		apiErr.Message = console.SignInMessage(view)
		return apiErr
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		return apiErr
	}

	apiErr.Message = "unexpected status: " + resp.Status
	return apiErr
}
