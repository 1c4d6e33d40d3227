// Package rest implements the service.Service interface against the
// tracker's HTTP JSON API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"taskdeck/internal/config"
	"taskdeck/internal/filter"
	"taskdeck/internal/service"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// APIError is a failed response that maps to no specific service error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

var _ service.Service = (*Client)(nil)

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	anon    *http.Client
	authed  *http.Client
	log     *log.Logger
}

// New creates a client for cfg.APIURL. Authenticated calls take their bearer
// token from tokens.
func New(cfg *config.Config, tokens oauth2.TokenSource, logger *log.Logger) *Client {
	c := NewWithHTTPClient(cfg.APIURL, http.DefaultClient, tokens)
	c.timeout = cfg.Timeout
	if logger != nil {
		c.log = logger
	}
	return c
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, tokens oauth2.TokenSource) *Client {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		baseURL: baseURL,
		timeout: config.DefaultTimeout,
		anon:    httpClient,
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: base},
			Timeout:   httpClient.Timeout,
		},
		log: log.New(io.Discard, "", 0),
	}
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, credentialsRequest{Email: creds.Email, Password: creds.Password}, &out, false)
	if err != nil {
		return service.AuthResult{}, err
	}
	return out.toService(), nil
}

// Register implements service.Service.
func (c *Client) Register(ctx context.Context, reg service.Registration) (service.AuthResult, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, registrationBody(reg), &out, false); err != nil {
		return service.AuthResult{}, err
	}
	return out.toService(), nil
}

// JoinOrg implements service.Service.
func (c *Client) JoinOrg(ctx context.Context, reg service.Registration) (service.AuthResult, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/org/join", nil, registrationBody(reg), &out, false); err != nil {
		return service.AuthResult{}, err
	}
	return out.toService(), nil
}

func registrationBody(reg service.Registration) registrationRequest {
	return registrationRequest{Name: reg.Name, Email: reg.Email, Password: reg.Password, OrgName: reg.OrgName}
}

// Dashboard implements service.Service.
func (c *Client) Dashboard(ctx context.Context) (service.Dashboard, error) {
	var out wireDashboard
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, nil, &out, true); err != nil {
		return service.Dashboard{}, err
	}
	return out.toService()
}

// ListProjects implements service.Service.
func (c *Client) ListProjects(ctx context.Context) ([]service.Project, error) {
	var out []wireProject
	if err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &out, true); err != nil {
		return nil, err
	}
	result := make([]service.Project, 0, len(out))
	for _, p := range out {
		result = append(result, p.toService())
	}
	return result, nil
}

// GetProject implements service.Service.
func (c *Client) GetProject(ctx context.Context, id string) (service.Project, error) {
	var out wireProject
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, nil, &out, true); err != nil {
		return service.Project{}, err
	}
	return out.toService(), nil
}

// CreateProject implements service.Service.
func (c *Client) CreateProject(ctx context.Context, p service.NewProject) (service.Project, error) {
	var out wireProject
	body := projectRequest{Name: &p.Name, Description: &p.Description}
	if err := c.do(ctx, http.MethodPost, "/projects", nil, body, &out, true); err != nil {
		return service.Project{}, err
	}
	return out.toService(), nil
}

// UpdateProject implements service.Service.
func (c *Client) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	var out wireProject
	body := projectRequest{Name: patch.Name, Description: patch.Description}
	if err := c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), nil, body, &out, true); err != nil {
		return service.Project{}, err
	}
	return out.toService(), nil
}

// DeleteProject implements service.Service.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, nil, true)
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	var out []wireTask
	if err := c.do(ctx, http.MethodGet, "/tasks", filter.QueryValues(q), nil, &out, true); err != nil {
		return nil, err
	}
	return convertTasks(out)
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	var out wireTask
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, newTaskRequest(t), &out, true); err != nil {
		return service.Task{}, err
	}
	return out.toService()
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var out wireTask
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), nil, patchTaskRequest(patch), &out, true); err != nil {
		return service.Task{}, err
	}
	return out.toService()
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil, true)
}

// ListMembers implements service.Service.
func (c *Client) ListMembers(ctx context.Context) ([]service.User, error) {
	var out []wireUser
	if err := c.do(ctx, http.MethodGet, "/org/members", nil, nil, &out, true); err != nil {
		return nil, err
	}
	result := make([]service.User, 0, len(out))
	for _, u := range out {
		result = append(result, u.toService())
	}
	return result, nil
}

// do sends one request and decodes the JSON response into out. Only
// authenticated calls carry the bearer token.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.anon
	if auth {
		client = c.authed
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.log.Printf("%s %s [%s] failed: %v", method, path, requestID, err)
		return wrapError(err)
	}
	defer resp.Body.Close()
	c.log.Printf("%s %s [%s] %d in %s", method, path, requestID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return wrapError(err)
	}
	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, data, auth)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// wrapError maps transport failures. A missing session surfaces from the
// token source and is passed through.
func wrapError(err error) error {
	if errors.Is(err, service.ErrUnauthenticated) {
		return service.ErrUnauthenticated
	}
	return fmt.Errorf("%w: %v", service.ErrTransport, err)
}

// statusError maps an error response. On the auth endpoints a 401 means bad
// credentials, not a lost session.
func statusError(code int, body []byte, auth bool) error {
	msg := errorMessage(body)
	switch {
	case (code == http.StatusUnauthorized || code == http.StatusForbidden) && auth:
		return fmt.Errorf("%w: %s", service.ErrUnauthenticated, msg)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrNotFound, msg)
	case code == http.StatusBadRequest || code == http.StatusConflict ||
		code == http.StatusUnprocessableEntity || code == http.StatusUnauthorized:
		if msg == "" {
			msg = http.StatusText(code)
		}
		return &service.ValidationError{Message: msg}
	}
	return &APIError{StatusCode: code, Message: msg}
}
