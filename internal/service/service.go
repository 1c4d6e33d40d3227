// Package service defines the backend-agnostic interface for tracker
// operations.
package service

import "context"

// Service defines the interface for persistence service operations.
// Every REST call goes through this interface; the engine and the commands
// never build HTTP requests themselves.
type Service interface {
	// Login exchanges credentials for an identity and bearer token.
	Login(ctx context.Context, creds Credentials) (AuthResult, error)

	// Register creates an organization; the caller becomes its Admin.
	Register(ctx context.Context, reg Registration) (AuthResult, error)

	// JoinOrg joins an existing organization by exact name; the caller
	// becomes a Member.
	JoinOrg(ctx context.Context, reg Registration) (AuthResult, error)

	// Dashboard returns the organization summary.
	Dashboard(ctx context.Context) (Dashboard, error)

	// ListProjects returns the organization's projects in API order.
	ListProjects(ctx context.Context) ([]Project, error)

	// GetProject returns one project or ErrNotFound.
	GetProject(ctx context.Context, id string) (Project, error)

	// CreateProject creates a project.
	CreateProject(ctx context.Context, p NewProject) (Project, error)

	// UpdateProject changes the fields set in patch.
	UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error)

	// DeleteProject deletes a project and, server-side, all its tasks.
	DeleteProject(ctx context.Context, id string) error

	// ListTasks returns tasks matching every non-empty field of q, in API
	// order (no client-side sorting).
	ListTasks(ctx context.Context, q TaskQuery) ([]Task, error)

	// CreateTask creates a task.
	CreateTask(ctx context.Context, t NewTask) (Task, error)

	// UpdateTask changes the fields set in patch.
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error

	// ListMembers returns the organization's members.
	ListMembers(ctx context.Context) ([]User, error)
}
