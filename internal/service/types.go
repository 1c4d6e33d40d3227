package service

import (
	"fmt"
	"strings"
	"time"
)

// Role is a member's role within an organization.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// Status is a task's workflow stage.
type Status string

const (
	StatusBacklog    Status = "Backlog"
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists every stage in workflow order.
var Statuses = []Status{StatusBacklog, StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the four stages.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus resolves a stage name case-insensitively. "inprogress",
// "in-progress" and "in_progress" are accepted for In Progress.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	if key == "inprogress" {
		key = "in progress"
	}
	for _, known := range Statuses {
		if strings.ToLower(string(known)) == key {
			return known, nil
		}
	}
	return "", &ValidationError{Message: fmt.Sprintf("invalid stage: %s", s)}
}

// Priority is a task's priority.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePriority resolves a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, known := range Priorities {
		if strings.ToLower(string(known)) == key {
			return known, nil
		}
	}
	return "", &ValidationError{Message: fmt.Sprintf("invalid priority: %s", s)}
}

// Ref is a reference to another entity. Name is empty when the backend
// returned a bare id.
type Ref struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Label returns the name, or the id when no name is known.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// User is a member of an organization.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
	OrgID string `json:"orgId,omitempty" yaml:"orgId,omitempty"`
}

// Identity is the authenticated user as held by the session.
type Identity struct {
	User    `yaml:",inline"`
	OrgName string `json:"orgName" yaml:"orgName"`
}

// IsAdmin reports whether the identity carries the Admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Project is a container of tasks within an organization. The counters are
// computed by the backend and never recomputed locally.
type Project struct {
	ID                   string `json:"id" yaml:"id"`
	Name                 string `json:"name" yaml:"name"`
	Description          string `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedBy            Ref    `json:"createdBy" yaml:"createdBy"`
	OrgID                string `json:"orgId,omitempty" yaml:"orgId,omitempty"`
	CompletionPercentage int    `json:"completionPercentage" yaml:"completionPercentage"`
	DoneTasks            int    `json:"doneTasks" yaml:"doneTasks"`
	TotalTasks           int    `json:"totalTasks" yaml:"totalTasks"`
}

// Task is a unit of work within a project. DueDate and Assignee are nil
// when absent.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Assignee    *Ref       `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
	Project     Ref        `json:"project" yaml:"project"`
	OrgID       string     `json:"orgId,omitempty" yaml:"orgId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
}

// Dashboard is the organization-wide summary computed by the backend.
// RecentTasks arrive most-recent-first and already truncated.
type Dashboard struct {
	TotalProjects       int              `json:"totalProjects" yaml:"totalProjects"`
	TotalTasks          int              `json:"totalTasks" yaml:"totalTasks"`
	CompletedPercentage int              `json:"completedPercentage" yaml:"completedPercentage"`
	OverdueTasks        int              `json:"overdueTasks" yaml:"overdueTasks"`
	DoneTasks           int              `json:"doneTasks" yaml:"doneTasks"`
	TasksByStatus       map[Status]int   `json:"tasksByStatus" yaml:"tasksByStatus"`
	TasksByPriority     map[Priority]int `json:"tasksByPriority" yaml:"tasksByPriority"`
	RecentTasks         []Task           `json:"recentTasks" yaml:"recentTasks"`
}

// Credentials are used to log in.
type Credentials struct {
	Email    string
	Password string
}

// Validate checks required fields.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return required("email")
	}
	if c.Password == "" {
		return required("password")
	}
	return nil
}

// Registration is used both to create an organization and to join one by
// its exact name.
type Registration struct {
	Name     string
	Email    string
	Password string
	OrgName  string
}

// Validate checks required fields.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return required("name")
	case strings.TrimSpace(r.Email) == "":
		return required("email")
	case r.Password == "":
		return required("password")
	case strings.TrimSpace(r.OrgName) == "":
		return required("organization name")
	}
	return nil
}

// AuthResult is returned by login, register and join.
type AuthResult struct {
	Identity Identity
	Token    string
}

// NewProject is the payload for creating a project.
type NewProject struct {
	Name        string
	Description string
}

// Validate checks required fields.
func (p NewProject) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return required("project name")
	}
	return nil
}

// ProjectPatch holds the project fields to change; nil fields are left as is.
type ProjectPatch struct {
	Name        *string
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}

// Validate rejects a blank name.
func (p ProjectPatch) Validate() error {
	if p.Empty() {
		return &ValidationError{Message: "nothing to update"}
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return required("project name")
	}
	return nil
}

// Apply merges the set fields into project.
func (p ProjectPatch) Apply(project Project) Project {
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
	return project
}

// NewTask is the payload for creating a task.
type NewTask struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	AssigneeID  string
	ProjectID   string
}

// Validate checks required fields. Zero Status and Priority default to
// Backlog and Medium.
func (t *NewTask) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return required("task title")
	}
	if strings.TrimSpace(t.ProjectID) == "" {
		return required("project")
	}
	if t.Status == "" {
		t.Status = StatusBacklog
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Status.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid stage: %s", t.Status)}
	}
	if !t.Priority.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid priority: %s", t.Priority)}
	}
	return nil
}

// TaskPatch holds the task fields to change; nil fields are left as is.
// ClearDueDate removes the due date.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	AssigneeID   *string
}

// StatusPatch returns a patch that only moves a task to status.
func StatusPatch(status Status) TaskPatch {
	return TaskPatch{Status: &status}
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate && p.AssigneeID == nil
}

// Validate rejects blank titles and unknown enum values.
func (p TaskPatch) Validate() error {
	if p.Empty() {
		return &ValidationError{Message: "nothing to update"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return required("task title")
	}
	if p.DueDate != nil && p.ClearDueDate {
		return &ValidationError{Message: "due date both set and cleared"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid stage: %s", *p.Status)}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid priority: %s", *p.Priority)}
	}
	return nil
}

// Apply merges the set fields into task. The merge is shallow: a new
// assignee replaces the reference, keeping the known name only when the id
// is unchanged.
func (p TaskPatch) Apply(task Task) Task {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.DueDate != nil {
		due := *p.DueDate
		task.DueDate = &due
	}
	if p.ClearDueDate {
		task.DueDate = nil
	}
	if p.AssigneeID != nil {
		ref := Ref{ID: *p.AssigneeID}
		if task.Assignee != nil && task.Assignee.ID == ref.ID {
			ref.Name = task.Assignee.Name
		}
		task.Assignee = &ref
	}
	return task
}

// TaskQuery narrows a task listing. Empty fields are not sent.
type TaskQuery struct {
	Status    Status
	Priority  Priority
	ProjectID string
}

func required(field string) error {
	return &ValidationError{Message: field + " required"}
}
