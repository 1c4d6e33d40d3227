// Package googletasks mirrors tracker tasks into a Google Tasks list.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskdeck/internal/config"
	"taskdeck/internal/service"
)

const (
	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// ErrNotAuthorized means no usable Google token is stored.
var ErrNotAuthorized = errors.New("google account not connected (run: taskdeck google-login)")

// Client talks to the Google Tasks API.
type Client struct {
	svc *tasks.Service
}

// New creates a client from the stored OAuth client and token.
// Requires google_client.json and google_token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := loadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.GoogleTokenPath())
	if err != nil {
		return nil, err
	}

	// Refreshes the access token as needed
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc}, nil
}

func loadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.GoogleClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.GoogleClientFile, err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GoogleClientFile, err)
	}
	return oauthConfig, nil
}

// MirrorResult reports what Mirror did.
type MirrorResult struct {
	ListID  string `yaml:"listId"`
	Created int    `yaml:"created"`
	Skipped int    `yaml:"skipped"`
}

// Mirror copies items into the Google Tasks list titled listTitle, creating
// the list if needed. A task whose title is already in the list is skipped,
// so mirroring twice creates nothing new.
func (c *Client) Mirror(ctx context.Context, listTitle string, items []service.Task) (MirrorResult, error) {
	listID, err := c.ensureList(ctx, listTitle)
	if err != nil {
		return MirrorResult{}, err
	}
	existing, err := c.titles(ctx, listID)
	if err != nil {
		return MirrorResult{}, err
	}

	result := MirrorResult{ListID: listID}
	for _, t := range items {
		key := normalize(t.Title)
		if _, ok := existing[key]; ok {
			result.Skipped++
			continue
		}
		if err := c.insert(ctx, listID, toGoogle(t)); err != nil {
			return result, err
		}
		existing[key] = struct{}{}
		result.Created++
	}
	return result, nil
}

// ensureList returns the id of the list with the given title (trimmed,
// case-insensitive), creating it when there is none.
func (c *Client) ensureList(ctx context.Context, title string) (string, error) {
	want := normalize(title)
	if want == "" {
		return "", errors.New("list title required")
	}

	listCtx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var found string
	err := c.svc.Tasklists.List().MaxResults(PageSize).Pages(listCtx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			if found == "" && normalize(list.Title) == want {
				found = list.Id
			}
		}
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}
	if found != "" {
		return found, nil
	}

	insertCtx, cancelInsert := context.WithTimeout(ctx, APITimeout)
	defer cancelInsert()
	created, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: strings.TrimSpace(title)}).Context(insertCtx).Do()
	if err != nil {
		return "", wrapError(err)
	}
	return created.Id, nil
}

// titles returns the normalized titles of every task in the list, open or
// completed.
func (c *Client) titles(ctx context.Context, listID string) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	out := map[string]struct{}{}
	err := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				out[normalize(t.Title)] = struct{}{}
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

func (c *Client) insert(ctx context.Context, listID string, t *tasks.Task) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if _, err := c.svc.Tasks.Insert(listID, t).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func toGoogle(t service.Task) *tasks.Task {
	g := &tasks.Task{
		Title:  t.Title,
		Notes:  t.Description,
		Status: statusNeedsAction,
	}
	if t.Status == service.StatusDone {
		g.Status = statusCompleted
	}
	// The API keeps only the date part of due.
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		g.Due = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	}
	return g
}

func normalize(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: google tasks request timed out", service.ErrTransport)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("google token expired or revoked (run: taskdeck google-login)")
		case http.StatusNotFound:
			return service.ErrNotFound
		}
		return err
	}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		return fmt.Errorf("google token expired or revoked (run: taskdeck google-login)")
	}
	return err
}
