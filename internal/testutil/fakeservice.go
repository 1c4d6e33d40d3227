// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskdeck/internal/derive"
	"taskdeck/internal/filter"
	"taskdeck/internal/service"
)

// TokenSecret signs the tokens the fake issues.
var TokenSecret = []byte("taskdeck-test-secret")

// RecentLimit is how many recent tasks the fake dashboard returns.
const RecentLimit = 5

// Operation names recorded in FakeService.Calls.
const (
	OpLogin         = "POST /auth/login"
	OpRegister      = "POST /auth/register"
	OpJoin          = "POST /org/join"
	OpDashboard     = "GET /dashboard"
	OpListProjects  = "GET /projects"
	OpGetProject    = "GET /projects/:id"
	OpCreateProject = "POST /projects"
	OpUpdateProject = "PATCH /projects/:id"
	OpDeleteProject = "DELETE /projects/:id"
	OpListTasks     = "GET /tasks"
	OpCreateTask    = "POST /tasks"
	OpUpdateTask    = "PATCH /tasks/:id"
	OpDeleteTask    = "DELETE /tasks/:id"
	OpListMembers   = "GET /org/members"
)

type account struct {
	user     service.User
	password string
}

// FakeService is an in-memory implementation of service.Service for
// testing. It models a single organization and enforces the same rules as
// the real service: required fields, join by exact name, cascade delete.
type FakeService struct {
	mu       sync.Mutex
	orgID    string
	orgName  string
	accounts []account
	projects []service.Project
	tasks    []service.Task
	calls    []string

	// Now is the fake clock; defaults to time.Now.
	Now func() time.Time

	// OnCall runs after a call is recorded and before it is served, with no
	// lock held. Tests use it to hold a request in flight.
	OnCall func(op string)

	// Error injection for testing
	LoginErr         error
	RegisterErr      error
	JoinErr          error
	DashboardErr     error
	ListProjectsErr  error
	GetProjectErr    error
	CreateProjectErr error
	UpdateProjectErr error
	DeleteProjectErr error
	ListTasksErr     error
	CreateTaskErr    error
	UpdateTaskErr    error
	DeleteTaskErr    error
	ListMembersErr   error
}

// NewFakeService creates an empty FakeService. orgName may be empty, in
// which case the first Register creates the organization.
func NewFakeService(orgName string) *FakeService {
	f := &FakeService{Now: time.Now}
	if orgName != "" {
		f.orgID = "org-" + strings.ToLower(orgName)
		f.orgName = orgName
	}
	return f
}

// OrgID returns the organization's id.
func (f *FakeService) OrgID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orgID
}

// AddMember adds a member who can log in with password.
func (f *FakeService) AddMember(id, name, email string, role service.Role, password string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := service.User{ID: id, Name: name, Email: email, Role: role, OrgID: f.orgID}
	f.accounts = append(f.accounts, account{user: u, password: password})
	return u
}

// AddProject adds a project.
func (f *FakeService) AddProject(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, service.Project{ID: id, Name: name, OrgID: f.orgID})
}

// AddTask adds a task. Project and assignee names are filled in from the
// stored records; a zero CreatedAt is set from the clock.
func (f *FakeService) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = f.Now()
	}
	t.OrgID = f.orgID
	f.tasks = append(f.tasks, f.populate(t))
}

// Calls returns the recorded operations in call order.
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times op was called.
func (f *FakeService) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (f *FakeService) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeService) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	hook := f.OnCall
	f.mu.Unlock()
	if hook != nil {
		hook(op)
	}
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	f.record(OpLogin)
	if f.LoginErr != nil {
		return service.AuthResult{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if strings.EqualFold(a.user.Email, creds.Email) && a.password == creds.Password {
			return f.issue(a.user)
		}
	}
	return service.AuthResult{}, &service.ValidationError{Message: "Invalid email or password"}
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, reg service.Registration) (service.AuthResult, error) {
	f.record(OpRegister)
	if f.RegisterErr != nil {
		return service.AuthResult{}, f.RegisterErr
	}
	if err := reg.Validate(); err != nil {
		return service.AuthResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orgName != "" {
		return service.AuthResult{}, &service.ValidationError{Message: "Organization name already taken"}
	}
	if err := f.checkEmail(reg.Email); err != nil {
		return service.AuthResult{}, err
	}
	f.orgID = uuid.NewString()
	f.orgName = reg.OrgName
	return f.issue(f.addAccount(reg, service.RoleAdmin))
}

// JoinOrg implements service.Service.
func (f *FakeService) JoinOrg(ctx context.Context, reg service.Registration) (service.AuthResult, error) {
	f.record(OpJoin)
	if f.JoinErr != nil {
		return service.AuthResult{}, f.JoinErr
	}
	if err := reg.Validate(); err != nil {
		return service.AuthResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orgName == "" || f.orgName != reg.OrgName {
		return service.AuthResult{}, &service.ValidationError{Message: "Organization not found"}
	}
	if err := f.checkEmail(reg.Email); err != nil {
		return service.AuthResult{}, err
	}
	return f.issue(f.addAccount(reg, service.RoleMember))
}

func (f *FakeService) checkEmail(email string) error {
	for _, a := range f.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return &service.ValidationError{Message: "User already exists"}
		}
	}
	return nil
}

func (f *FakeService) addAccount(reg service.Registration, role service.Role) service.User {
	u := service.User{ID: uuid.NewString(), Name: reg.Name, Email: reg.Email, Role: role, OrgID: f.orgID}
	f.accounts = append(f.accounts, account{user: u, password: reg.Password})
	return u
}

func (f *FakeService) issue(u service.User) (service.AuthResult, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": u.ID,
		"exp": f.Now().Add(24 * time.Hour).Unix(),
	}).SignedString(TokenSecret)
	if err != nil {
		return service.AuthResult{}, err
	}
	return service.AuthResult{
		Identity: service.Identity{User: u, OrgName: f.orgName},
		Token:    token,
	}, nil
}

// Dashboard implements service.Service.
func (f *FakeService) Dashboard(ctx context.Context) (service.Dashboard, error) {
	f.record(OpDashboard)
	if f.DashboardErr != nil {
		return service.Dashboard{}, f.DashboardErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return derive.Tally(f.projects, f.tasks, f.Now(), RecentLimit), nil
}

// ListProjects implements service.Service.
func (f *FakeService) ListProjects(ctx context.Context) ([]service.Project, error) {
	f.record(OpListProjects)
	if f.ListProjectsErr != nil {
		return nil, f.ListProjectsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, derive.ProjectProgress(p, f.tasks))
	}
	return out, nil
}

// GetProject implements service.Service.
func (f *FakeService) GetProject(ctx context.Context, id string) (service.Project, error) {
	f.record(OpGetProject)
	if f.GetProjectErr != nil {
		return service.Project{}, f.GetProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.projectIndex(id)
	if i < 0 {
		return service.Project{}, service.ErrNotFound
	}
	return derive.ProjectProgress(f.projects[i], f.tasks), nil
}

// CreateProject implements service.Service.
func (f *FakeService) CreateProject(ctx context.Context, p service.NewProject) (service.Project, error) {
	f.record(OpCreateProject)
	if f.CreateProjectErr != nil {
		return service.Project{}, f.CreateProjectErr
	}
	if err := p.Validate(); err != nil {
		return service.Project{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	project := service.Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		OrgID:       f.orgID,
	}
	f.projects = append(f.projects, project)
	return project, nil
}

// UpdateProject implements service.Service.
func (f *FakeService) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	f.record(OpUpdateProject)
	if f.UpdateProjectErr != nil {
		return service.Project{}, f.UpdateProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.projectIndex(id)
	if i < 0 {
		return service.Project{}, service.ErrNotFound
	}
	f.projects[i] = patch.Apply(f.projects[i])
	for j, t := range f.tasks {
		if t.Project.ID == id {
			f.tasks[j].Project.Name = f.projects[i].Name
		}
	}
	return derive.ProjectProgress(f.projects[i], f.tasks), nil
}

// DeleteProject implements service.Service. Tasks of the project are
// deleted with it.
func (f *FakeService) DeleteProject(ctx context.Context, id string) error {
	f.record(OpDeleteProject)
	if f.DeleteProjectErr != nil {
		return f.DeleteProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.projectIndex(id)
	if i < 0 {
		return service.ErrNotFound
	}
	f.projects = append(f.projects[:i], f.projects[i+1:]...)
	kept := f.tasks[:0]
	for _, t := range f.tasks {
		if t.Project.ID != id {
			kept = append(kept, t)
		}
	}
	f.tasks = kept
	return nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	f.record(OpListTasks)
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []service.Task{}
	for _, t := range f.tasks {
		if filter.MatchQuery(q, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, nt service.NewTask) (service.Task, error) {
	f.record(OpCreateTask)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if err := nt.Validate(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.projectIndex(nt.ProjectID) < 0 {
		return service.Task{}, &service.ValidationError{Message: "Project not found"}
	}
	t := service.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(nt.Title),
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		DueDate:     nt.DueDate,
		Project:     service.Ref{ID: nt.ProjectID},
		OrgID:       f.orgID,
		CreatedAt:   f.Now(),
	}
	if nt.AssigneeID != "" {
		t.Assignee = &service.Ref{ID: nt.AssigneeID}
	}
	t = f.populate(t)
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	f.record(OpUpdateTask)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	if err := patch.Validate(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = f.populate(patch.Apply(t))
			return f.tasks[i], nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record(OpDeleteTask)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}

// ListMembers implements service.Service.
func (f *FakeService) ListMembers(ctx context.Context) ([]service.User, error) {
	f.record(OpListMembers)
	if f.ListMembersErr != nil {
		return nil, f.ListMembersErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.User, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a.user)
	}
	return out, nil
}

// UserForToken resolves a token issued by the fake.
func (f *FakeService) UserForToken(token string) (service.User, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return TokenSecret, nil
	}, jwt.WithTimeFunc(f.Now))
	if err != nil {
		return service.User{}, service.ErrUnauthenticated
	}
	sub, _ := claims.GetSubject()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.user.ID == sub {
			return a.user, nil
		}
	}
	return service.User{}, service.ErrUnauthenticated
}

func (f *FakeService) projectIndex(id string) int {
	for i, p := range f.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// populate fills reference names the way the real service populates them.
func (f *FakeService) populate(t service.Task) service.Task {
	if i := f.projectIndex(t.Project.ID); i >= 0 {
		t.Project.Name = f.projects[i].Name
	}
	if t.Assignee != nil {
		ref := *t.Assignee
		for _, a := range f.accounts {
			if a.user.ID == ref.ID {
				ref.Name = a.user.Name
			}
		}
		t.Assignee = &ref
	}
	return t
}
