// Package client talks to the remote mirror API on behalf of the local
// client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"folio/api/internal/email"
	"folio/api/internal/logging"
	"folio/api/internal/portfolio"
)

// ErrRemoteUnavailable matches every response in which the API reports the
// remote store as not connected.
var ErrRemoteUnavailable = errors.New("remote store not available")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Operation string
	Status    int
	Code      string
	Message   string
	Details   any

	remoteDown bool
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: HTTP %d %s: %s", e.Operation, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRemoteUnavailable && e.remoteDown
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithToken sends the access token as a bearer on every request.
func WithToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.New("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Remote    string `json:"remote"`
}

func (h Health) RemoteConnected() bool {
	return h.Remote == "connected"
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.doJSON(ctx, http.MethodGet, "/api/health", "health", nil, &out)
	return out, err
}

type MigrationStatus struct {
	HasProfile      bool   `json:"hasProfile"`
	ProjectsCount   int    `json:"projectsCount"`
	ContactsCount   int    `json:"contactsCount"`
	HasGitSettings  bool   `json:"hasGitSettings"`
	Migrated        bool   `json:"migrated"`
	RemoteAvailable bool   `json:"remoteAvailable"`
	Message         string `json:"message,omitempty"`
}

func (c *Client) MigrationStatus(ctx context.Context) (MigrationStatus, error) {
	var out MigrationStatus
	err := c.doJSON(ctx, http.MethodGet, "/api/migrate/status", "migration status", nil, &out)
	return out, err
}

// MigrationResults mirrors the server's per-run report. Records are kept as
// raw JSON since the client only counts them.
type MigrationResults struct {
	Profile     json.RawMessage   `json:"profile"`
	Projects    []json.RawMessage `json:"projects"`
	Contacts    []json.RawMessage `json:"contacts"`
	GitSettings json.RawMessage   `json:"gitSettings"`
	Skipped     struct {
		Projects int `json:"projects"`
		Contacts int `json:"contacts"`
	} `json:"skipped"`
	Errors []string `json:"errors"`
}

type MigrationResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Results MigrationResults `json:"results"`
}

// Migrate posts the local values, each as the JSON text read from the
// local store.
func (c *Client) Migrate(ctx context.Context, data map[string]string) (MigrationResponse, error) {
	var out MigrationResponse
	body := map[string]any{"localStorageData": data}
	err := c.doJSON(ctx, http.MethodPost, "/api/migrate/migrate", "migrate", body, &out)
	return out, err
}

// RemoteContact is a contact message as stored by the mirror.
type RemoteContact struct {
	RemoteID string `json:"_id"`
	portfolio.ContactMessage
}

func (c *Client) CreateContact(ctx context.Context, m portfolio.ContactMessage) (RemoteContact, error) {
	var out RemoteContact
	err := c.doJSON(ctx, http.MethodPost, "/api/contacts", "create contact", m, &out)
	return out, err
}

func (c *Client) SendEmail(ctx context.Context, req email.ContactRequest) (email.Result, error) {
	var out email.Result
	err := c.doJSON(ctx, http.MethodPost, "/api/send-email", "send email", req, &out)
	return out, err
}

type Tokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	UserName     string `json:"userName"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	ExpiresAt    int64  `json:"expiresAt"`
}

func (c *Client) Login(ctx context.Context, emailAddr, password string) (Tokens, error) {
	var out Tokens
	body := map[string]string{"email": emailAddr, "password": password}
	err := c.doJSON(ctx, http.MethodPost, "/api/session/login", "login", body, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	return c.doJSON(ctx, http.MethodPost, "/api/session/logout", "logout", body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, operation string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", operation, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.DebugContext(ctx, "api request", "operation", operation, "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(operation, resp)
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

func decodeError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Operation: operation, Status: resp.StatusCode}

	var payload struct {
		Code            string `json:"code"`
		Error           string `json:"error"`
		Message         string `json:"message"`
		Details         any    `json:"details"`
		RemoteAvailable *bool  `json:"remoteAvailable"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Error
		apiErr.Details = payload.Details
	}
	// a 503 means the mirror is down unless the API named another cause
	if resp.StatusCode == http.StatusServiceUnavailable {
		apiErr.remoteDown = payload.Code == "" || payload.Code == "REMOTE_UNAVAILABLE" ||
			(payload.RemoteAvailable != nil && !*payload.RemoteAvailable)
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
