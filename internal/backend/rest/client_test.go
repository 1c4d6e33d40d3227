package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"taskdeck/internal/backend/rest"
	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

// tokenBox is a token source whose token can be set after login.
type tokenBox struct {
	token atomic.Value
}

func (b *tokenBox) Token() (*oauth2.Token, error) {
	s, _ := b.token.Load().(string)
	if s == "" {
		return nil, service.ErrUnauthenticated
	}
	return &oauth2.Token{AccessToken: s, TokenType: "Bearer"}, nil
}

func seededServer(t *testing.T) *testutil.FakeServer {
	t.Helper()
	fake := testutil.NewFakeService("Acme")
	fake.AddMember("u1", "Ada", "ada@acme.test", service.RoleAdmin, "secret")
	fake.AddProject("p1", "Launch")
	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	fake.AddTask(service.Task{ID: "t1", Title: "Plan", Status: service.StatusTodo, Priority: service.PriorityHigh, DueDate: &due, Project: service.Ref{ID: "p1"}, Assignee: &service.Ref{ID: "u1"}})
	fake.AddTask(service.Task{ID: "t2", Title: "Ship", Status: service.StatusDone, Priority: service.PriorityLow, Project: service.Ref{ID: "p1"}})
	return testutil.NewFakeServer(t, fake)
}

func loggedIn(t *testing.T, srv *testutil.FakeServer) *rest.Client {
	t.Helper()
	box := &tokenBox{}
	c := rest.NewWithHTTPClient(srv.APIURL(), srv.Client(), box)
	res, err := c.Login(context.Background(), service.Credentials{Email: "ada@acme.test", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	box.token.Store(res.Token)
	return c
}

func TestLogin(t *testing.T) {
	srv := seededServer(t)
	c := rest.NewWithHTTPClient(srv.APIURL(), srv.Client(), &tokenBox{})

	res, err := c.Login(context.Background(), service.Credentials{Email: "ada@acme.test", Password: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token == "" || res.Identity.ID != "u1" || res.Identity.OrgName != "Acme" || !res.Identity.IsAdmin() {
		t.Errorf("unexpected auth result %+v", res)
	}

	_, err = c.Login(context.Background(), service.Credentials{Email: "ada@acme.test", Password: "wrong"})
	if service.Message(err, "") != "Invalid email or password" {
		t.Errorf("expected bad credentials message, got %v", err)
	}
}

func TestListTasks_DecodesPopulatedRefs(t *testing.T) {
	c := loggedIn(t, seededServer(t))

	tasks, err := c.ListTasks(context.Background(), service.TaskQuery{Status: service.StatusTodo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Project.ID != "p1" || got.Project.Name != "Launch" {
		t.Errorf("unexpected project ref %+v", got.Project)
	}
	if got.Assignee == nil || got.Assignee.Name != "Ada" {
		t.Errorf("unexpected assignee %+v", got.Assignee)
	}
	if got.DueDate == nil || got.DueDate.Format("2006-01-02") != "2026-10-01" {
		t.Errorf("unexpected due date %v", got.DueDate)
	}
}

func TestCRUDRoundTrip(t *testing.T) {
	srv := seededServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	p, err := c.CreateProject(ctx, service.NewProject{Name: "Docs", Description: "user guide"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	task, err := c.CreateTask(ctx, service.NewTask{Title: "Outline", ProjectID: p.ID, AssigneeID: "u1", DueDate: &due, Status: service.StatusTodo, Priority: service.PriorityHigh})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Project.Name != "Docs" || task.Assignee == nil || task.Assignee.ID != "u1" {
		t.Errorf("unexpected created task %+v", task)
	}

	moved, err := c.UpdateTask(ctx, task.ID, service.StatusPatch(service.StatusInProgress))
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if moved.Status != service.StatusInProgress || moved.Title != "Outline" {
		t.Errorf("unexpected updated task %+v", moved)
	}

	name := "Handbook"
	renamed, err := c.UpdateProject(ctx, p.ID, service.ProjectPatch{Name: &name})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
	if renamed.Name != name || renamed.Description != "user guide" || renamed.TotalTasks != 1 {
		t.Errorf("unexpected project %+v", renamed)
	}

	if err := c.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if _, err := c.GetProject(ctx, p.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	left, err := c.ListTasks(ctx, service.TaskQuery{ProjectID: p.ID})
	if err != nil || len(left) != 0 {
		t.Errorf("expected cascade delete, got %v, %v", left, err)
	}

	d, err := c.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalTasks != 2 || d.TasksByStatus[service.StatusDone] != 1 || d.DoneTasks != 1 || d.CompletedPercentage != 50 {
		t.Errorf("unexpected dashboard %+v", d)
	}

	members, err := c.ListMembers(ctx)
	if err != nil || len(members) != 1 || members[0].Role != service.RoleAdmin {
		t.Errorf("unexpected members %+v, %v", members, err)
	}
}

func TestHeaders(t *testing.T) {
	srv := seededServer(t)
	c := loggedIn(t, srv)
	if _, err := c.ListProjects(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	headers := srv.Headers()
	if len(headers) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(headers))
	}
	if auth := headers[0].Get("Authorization"); auth != "" {
		t.Errorf("login must not carry a bearer token, got %q", auth)
	}
	if auth := headers[1].Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
		t.Errorf("expected bearer token, got %q", auth)
	}
	for i, h := range headers {
		if _, err := uuid.Parse(h.Get("X-Request-ID")); err != nil {
			t.Errorf("request %d: bad X-Request-ID %q", i, h.Get("X-Request-ID"))
		}
	}
}

func TestNoSession(t *testing.T) {
	srv := seededServer(t)
	c := rest.NewWithHTTPClient(srv.APIURL(), srv.Client(), &tokenBox{})

	_, err := c.ListProjects(context.Background())
	if !errors.Is(err, service.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if n := len(srv.Headers()); n != 0 {
		t.Errorf("expected no request without a session, got %d", n)
	}
}

func TestRejectedToken(t *testing.T) {
	srv := seededServer(t)
	box := &tokenBox{}
	box.token.Store("forged")
	c := rest.NewWithHTTPClient(srv.APIURL(), srv.Client(), box)

	if _, err := c.ListTasks(context.Background(), service.TaskQuery{}); !errors.Is(err, service.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		check  func(error) bool
	}{
		{http.StatusBadRequest, `{"message":"Title is required"}`, func(err error) bool {
			return service.Message(err, "") == "Title is required"
		}},
		{http.StatusConflict, `{"message":"Duplicate"}`, service.IsValidation},
		{http.StatusUnauthorized, `{"message":"expired"}`, func(err error) bool { return errors.Is(err, service.ErrUnauthenticated) }},
		{http.StatusForbidden, `{"message":"admins only"}`, func(err error) bool { return errors.Is(err, service.ErrUnauthenticated) }},
		{http.StatusNotFound, `{"message":"Project not found"}`, func(err error) bool { return errors.Is(err, service.ErrNotFound) }},
		{http.StatusInternalServerError, `oops`, func(err error) bool {
			var apiErr *rest.APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500 && apiErr.Message == "oops"
		}},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			box := &tokenBox{}
			box.token.Store("t")
			c := rest.NewWithHTTPClient(srv.URL, srv.Client(), box)
			_, err := c.GetProject(context.Background(), "p1")
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error mapping: %v", err)
			}
		})
	}
}

func TestBareIDReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"_id":"t9","title":"Bare","status":"Backlog","priority":"Low",
			"projectId":"p7","assignedTo":"u3","createdAt":"2026-10-01T08:30:00.000Z","dueDate":null}]`)
	}))
	defer srv.Close()

	box := &tokenBox{}
	box.token.Store("t")
	tasks, err := rest.NewWithHTTPClient(srv.URL, srv.Client(), box).ListTasks(context.Background(), service.TaskQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := tasks[0]
	if got.Project.ID != "p7" || got.Project.Name != "" || got.Assignee == nil || got.Assignee.ID != "u3" {
		t.Errorf("unexpected refs %+v / %+v", got.Project, got.Assignee)
	}
	if got.DueDate != nil {
		t.Errorf("expected no due date, got %v", got.DueDate)
	}
	if got.CreatedAt.Hour() != 8 {
		t.Errorf("unexpected createdAt %v", got.CreatedAt)
	}
}

func TestListTasks_UnknownEnumsRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"status", `[{"_id":"t1","title":"a","status":"Blocked","priority":"Low","projectId":"p1"},
			{"_id":"t2","title":"b","status":"Todo","priority":"Low","projectId":"p1"}]`, `unknown status "Blocked"`},
		{"missing status", `[{"_id":"t1","title":"a","priority":"Low","projectId":"p1"}]`, `unknown status ""`},
		{"priority", `[{"_id":"t1","title":"a","status":"Todo","priority":"Urgent","projectId":"p1"}]`, `unknown priority "Urgent"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			box := &tokenBox{}
			box.token.Store("t")
			tasks, err := rest.NewWithHTTPClient(srv.URL, srv.Client(), box).ListTasks(context.Background(), service.TaskQuery{})
			if err == nil {
				t.Fatalf("expected an error, got tasks %+v", tasks)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
			if tasks != nil {
				t.Errorf("expected no tasks, got %+v", tasks)
			}
		})
	}
}

func TestTaskRequestBody(t *testing.T) {
	var body map[string]any
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&body)
		}
		if r.Method == http.MethodGet {
			io.WriteString(w, `[]`)
			return
		}
		io.WriteString(w, `{"_id":"t1","title":"x","status":"Todo","priority":"High","projectId":"p1"}`)
	}))
	defer srv.Close()

	box := &tokenBox{}
	box.token.Store("t")
	c := rest.NewWithHTTPClient(srv.URL, srv.Client(), box)

	due := time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC)
	if _, err := c.CreateTask(context.Background(), service.NewTask{Title: "x", ProjectID: "p1", DueDate: &due, Status: service.StatusTodo, Priority: service.PriorityHigh}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["dueDate"] != "2026-10-20" {
		t.Errorf("expected calendar due date, got %v", body["dueDate"])
	}
	if _, ok := body["assignedTo"]; ok {
		t.Error("unassigned task must not send assignedTo")
	}

	body = nil
	if _, err := c.UpdateTask(context.Background(), "t1", service.StatusPatch(service.StatusDone)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != 1 || body["status"] != "Done" {
		t.Errorf("expected a status-only patch, got %v", body)
	}

	body = nil
	if _, err := c.UpdateTask(context.Background(), "t1", service.TaskPatch{ClearDueDate: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := body["dueDate"]; len(body) != 1 || !ok || v != "" {
		t.Errorf("expected an empty dueDate to clear it, got %v", body)
	}

	if _, err := c.ListTasks(context.Background(), service.TaskQuery{Status: service.StatusInProgress, ProjectID: "p1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "projectId=p1&status=In+Progress" {
		t.Errorf("unexpected query %q", query)
	}
}

func TestUpdateTask_ClearsDueDate(t *testing.T) {
	c := loggedIn(t, seededServer(t))

	got, err := c.UpdateTask(context.Background(), "t1", service.TaskPatch{ClearDueDate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DueDate != nil {
		t.Errorf("expected no due date, got %v", got.DueDate)
	}
	if got.Assignee == nil || got.Assignee.ID != "u1" {
		t.Errorf("expected other fields untouched, got %+v", got.Assignee)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	box := &tokenBox{}
	box.token.Store("t")
	c := rest.NewWithHTTPClient(srv.URL, srv.Client(), box)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.ListProjects(ctx)
	if !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if msg := service.Message(err, "Failed to load projects"); msg != "Failed to load projects: service unreachable" {
		t.Errorf("unexpected message %q", msg)
	}
}
