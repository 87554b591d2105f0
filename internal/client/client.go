// Package client talks to the local analysis backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/trajectory-explorer/internal/auth"
	"github.com/jengzang/trajectory-explorer/internal/models"
)

// RequestIDHeader carries the id logged on both sides of a call.
const RequestIDHeader = "X-Request-ID"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d (request %s)", e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("backend returned %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
}

// Client is a backend API client. The zero value is not usable; use New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	secret     []byte
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithSecret enables bearer tokens signed with secret.
func WithSecret(secret string) Option {
	return func(c *Client) { c.secret = []byte(secret) }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a client for the backend at baseURL.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// FetchFilterFields loads the reference catalog of queryable fields.
func (c *Client) FetchFilterFields(ctx context.Context) (models.FilterCatalog, error) {
	var catalog models.FilterCatalog
	if err := c.do(ctx, http.MethodGet, "/filters", nil, &catalog); err != nil {
		return models.FilterCatalog{}, fmt.Errorf("failed to fetch filter fields: %w", err)
	}
	return catalog, nil
}

// SearchTrajectories runs a trajectory selection query.
func (c *Client) SearchTrajectories(ctx context.Context, q models.Query) ([]models.Record, error) {
	path := "/visualizations/trajectory_selection/" + strconv.Itoa(q.TargetBody)
	var records []models.Record
	if err := c.do(ctx, http.MethodPost, path, q, &records); err != nil {
		return nil, fmt.Errorf("failed to search trajectories: %w", err)
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// FetchEntries loads the entry points derived from a trajectory.
func (c *Client) FetchEntries(ctx context.Context, trajectoryID int64) ([]models.Record, error) {
	path := "/trajectories/" + url.PathEscape(strconv.FormatInt(trajectoryID, 10)) + "/entries"
	var records []models.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to fetch entries of trajectory %d: %w", trajectoryID, err)
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// FetchArcs loads the great-circle arcs of the given entries.
func (c *Client) FetchArcs(ctx context.Context, targetBody int, entryIDs []int64) ([]models.Arc, error) {
	path := "/visualizations/entry_arcs/" + strconv.Itoa(targetBody)
	var arcs []models.Arc
	if err := c.do(ctx, http.MethodPost, path, models.ArcRequest{EntryIDs: entryIDs}, &arcs); err != nil {
		return nil, fmt.Errorf("failed to fetch arcs: %w", err)
	}
	if arcs == nil {
		arcs = []models.Arc{}
	}
	return arcs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(c.secret) > 0 {
		token, err := auth.Mint(c.secret, c.now())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"latency", c.now().Sub(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, requestID)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response, requestID string) error {
	e := &StatusError{StatusCode: resp.StatusCode, RequestID: requestID}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
		e.Message = envelope.Message
	} else {
		e.Message = strings.TrimSpace(string(data))
	}
	return e
}
