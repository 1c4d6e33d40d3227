package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskdeck/internal/service"
)

// APIPrefix is where FakeServer mounts the API.
const APIPrefix = "/api"

// FakeServer serves a FakeService over the tracker's HTTP JSON API, with
// the same wire shapes as the real service.
type FakeServer struct {
	*httptest.Server
	Service *FakeService

	mu      sync.Mutex
	headers []http.Header
}

// NewFakeServer starts a server for svc. It is closed when the test ends.
func NewFakeServer(t interface{ Cleanup(func()) }, svc *FakeService) *FakeServer {
	fs := &FakeServer{Service: svc}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(fs.captureHeaders)
	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/auth/login", fs.login)
		r.Post("/auth/register", fs.register)
		r.Post("/org/join", fs.join)

		r.Group(func(r chi.Router) {
			r.Use(fs.requireToken)
			r.Get("/dashboard", fs.dashboard)
			r.Get("/org/members", fs.members)
			r.Get("/projects", fs.listProjects)
			r.Post("/projects", fs.createProject)
			r.Get("/projects/{id}", fs.getProject)
			r.Patch("/projects/{id}", fs.updateProject)
			r.Delete("/projects/{id}", fs.deleteProject)
			r.Get("/tasks", fs.listTasks)
			r.Post("/tasks", fs.createTask)
			r.Patch("/tasks/{id}", fs.updateTask)
			r.Delete("/tasks/{id}", fs.deleteTask)
		})
	})

	fs.Server = httptest.NewServer(r)
	t.Cleanup(fs.Close)
	return fs
}

// APIURL is the base URL clients should use.
func (fs *FakeServer) APIURL() string {
	return fs.URL + APIPrefix
}

// Headers returns the headers of every request received so far.
func (fs *FakeServer) Headers() []http.Header {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]http.Header, len(fs.headers))
	copy(out, fs.headers)
	return out
}

func (fs *FakeServer) captureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.headers = append(fs.headers, r.Header.Clone())
		fs.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (fs *FakeServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		if _, err := fs.Service.UserForToken(token); err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	OrgName  string `json:"orgName"`
}

func (fs *FakeServer) login(w http.ResponseWriter, r *http.Request) {
	var b authBody
	if !decode(w, r, &b) {
		return
	}
	res, err := fs.Service.Login(r.Context(), service.Credentials{Email: b.Email, Password: b.Password})
	if err != nil {
		if service.IsValidation(err) {
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authJSON(res))
}

func (fs *FakeServer) register(w http.ResponseWriter, r *http.Request) {
	var b authBody
	if !decode(w, r, &b) {
		return
	}
	res, err := fs.Service.Register(r.Context(), service.Registration(b))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authJSON(res))
}

func (fs *FakeServer) join(w http.ResponseWriter, r *http.Request) {
	var b authBody
	if !decode(w, r, &b) {
		return
	}
	res, err := fs.Service.JoinOrg(r.Context(), service.Registration(b))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authJSON(res))
}

func (fs *FakeServer) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := fs.Service.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	recent := make([]map[string]any, 0, len(d.RecentTasks))
	for _, t := range d.RecentTasks {
		recent = append(recent, taskJSON(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalProjects":       d.TotalProjects,
		"totalTasks":          d.TotalTasks,
		"completedPercentage": d.CompletedPercentage,
		"overdueTasks":        d.OverdueTasks,
		"tasksByStatus":       d.TasksByStatus,
		"tasksByPriority":     d.TasksByPriority,
		"recentTasks":         recent,
	})
}

func (fs *FakeServer) members(w http.ResponseWriter, r *http.Request) {
	users, err := fs.Service.ListMembers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (fs *FakeServer) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := fs.Service.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type projectBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (fs *FakeServer) createProject(w http.ResponseWriter, r *http.Request) {
	var b projectBody
	if !decode(w, r, &b) {
		return
	}
	p := service.NewProject{}
	if b.Name != nil {
		p.Name = *b.Name
	}
	if b.Description != nil {
		p.Description = *b.Description
	}
	created, err := fs.Service.CreateProject(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectJSON(created))
}

func (fs *FakeServer) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := fs.Service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectJSON(p))
}

func (fs *FakeServer) updateProject(w http.ResponseWriter, r *http.Request) {
	var b projectBody
	if !decode(w, r, &b) {
		return
	}
	p, err := fs.Service.UpdateProject(r.Context(), chi.URLParam(r, "id"), service.ProjectPatch(b))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectJSON(p))
}

func (fs *FakeServer) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := fs.Service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

func (fs *FakeServer) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := fs.Service.ListTasks(r.Context(), service.TaskQuery{
		Status:    service.Status(q.Get("status")),
		Priority:  service.Priority(q.Get("priority")),
		ProjectID: q.Get("projectId"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type taskBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	AssignedTo  *string `json:"assignedTo"`
	ProjectID   *string `json:"projectId"`
}

func (b taskBody) due() (*time.Time, error) {
	if b.DueDate == nil || *b.DueDate == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", *b.DueDate)
	if err != nil {
		return nil, &service.ValidationError{Message: "Invalid due date"}
	}
	return &d, nil
}

func (fs *FakeServer) createTask(w http.ResponseWriter, r *http.Request) {
	var b taskBody
	if !decode(w, r, &b) {
		return
	}
	due, err := b.due()
	if err != nil {
		writeError(w, err)
		return
	}
	nt := service.NewTask{
		Title:       deref(b.Title),
		Description: deref(b.Description),
		Status:      service.Status(deref(b.Status)),
		Priority:    service.Priority(deref(b.Priority)),
		DueDate:     due,
		AssigneeID:  deref(b.AssignedTo),
		ProjectID:   deref(b.ProjectID),
	}
	created, err := fs.Service.CreateTask(r.Context(), nt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskJSON(created))
}

func (fs *FakeServer) updateTask(w http.ResponseWriter, r *http.Request) {
	var b taskBody
	if !decode(w, r, &b) {
		return
	}
	due, err := b.due()
	if err != nil {
		writeError(w, err)
		return
	}
	patch := service.TaskPatch{Title: b.Title, Description: b.Description, DueDate: due, AssigneeID: b.AssignedTo}
	patch.ClearDueDate = b.DueDate != nil && *b.DueDate == ""
	if b.Status != nil {
		s := service.Status(*b.Status)
		patch.Status = &s
	}
	if b.Priority != nil {
		p := service.Priority(*b.Priority)
		patch.Priority = &p
	}
	updated, err := fs.Service.UpdateTask(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskJSON(updated))
}

func (fs *FakeServer) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := fs.Service.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func authJSON(res service.AuthResult) map[string]any {
	out := userJSON(res.Identity.User)
	out["orgName"] = res.Identity.OrgName
	out["token"] = res.Token
	return out
}

func userJSON(u service.User) map[string]any {
	return map[string]any{"_id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role, "orgId": u.OrgID}
}

func projectJSON(p service.Project) map[string]any {
	return map[string]any{
		"_id":                  p.ID,
		"name":                 p.Name,
		"description":          p.Description,
		"createdBy":            map[string]string{"_id": p.CreatedBy.ID, "name": p.CreatedBy.Name},
		"orgId":                p.OrgID,
		"completionPercentage": p.CompletionPercentage,
		"doneTasks":            p.DoneTasks,
		"totalTasks":           p.TotalTasks,
	}
}

// taskJSON renders a task with populated project and assignee references,
// as the real service does.
func taskJSON(t service.Task) map[string]any {
	out := map[string]any{
		"_id":         t.ID,
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"projectId":   map[string]string{"_id": t.Project.ID, "name": t.Project.Name},
		"orgId":       t.OrgID,
		"createdAt":   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		"assignedTo":  nil,
	}
	if t.DueDate != nil {
		out["dueDate"] = t.DueDate.UTC().Format(time.RFC3339Nano)
	}
	if t.Assignee != nil {
		out["assignedTo"] = map[string]string{"_id": t.Assignee.ID, "name": t.Assignee.Name}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	var v *service.ValidationError
	switch {
	case errors.As(err, &v):
		writeMessage(w, http.StatusBadRequest, v.Message)
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
	default:
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
