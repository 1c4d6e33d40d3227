// Package loader fetches collections from the service into the store.
//
// Every fetch is tagged with a per-view sequence number. A response is
// applied only if no later fetch of the same view has been applied already,
// so a slow response for an old filter can never overwrite a newer one.
// A failed fetch leaves the store as it was.
package loader

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"taskdeck/internal/filter"
	"taskdeck/internal/service"
	"taskdeck/internal/store"
)

// Views, one sequence counter each.
const (
	ViewTasks     = "tasks"
	ViewProjects  = "projects"
	ViewMembers   = "members"
	ViewDashboard = "dashboard"
)

// Loader runs the fetch paths.
type Loader struct {
	svc   service.Service
	store *store.Store
	log   *log.Logger

	mu   sync.Mutex
	last filter.Filter
}

// New creates a Loader. A nil logger discards debug output.
func New(svc service.Service, st *store.Store, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Loader{svc: svc, store: st, log: logger}
}

// Store returns the store the loader writes to.
func (l *Loader) Store() *store.Store {
	return l.store
}

// LastFilter returns the filter of the most recent task fetch.
func (l *Loader) LastFilter() filter.Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Tasks fetches the tasks matching f and returns the loaded task set.
func (l *Loader) Tasks(ctx context.Context, f filter.Filter) ([]service.Task, error) {
	l.mu.Lock()
	l.last = f
	l.mu.Unlock()

	seq := l.store.Begin(ViewTasks)
	l.log.Printf("fetch tasks #%d [%s]", seq, f)
	tasks, err := l.svc.ListTasks(ctx, f.Query())
	if err != nil {
		return nil, err
	}
	if !l.store.Commit(ViewTasks, seq, func(tx *store.Tx) { tx.ReplaceTasks(tasks) }) {
		l.log.Printf("discard stale tasks response #%d", seq)
	}
	return l.store.Tasks(), nil
}

// RefreshTasks refetches tasks with the last filter used.
func (l *Loader) RefreshTasks(ctx context.Context) ([]service.Task, error) {
	return l.Tasks(ctx, l.LastFilter())
}

// Projects fetches every project of the organization.
func (l *Loader) Projects(ctx context.Context) ([]service.Project, error) {
	seq := l.store.Begin(ViewProjects)
	projects, err := l.svc.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if !l.store.Commit(ViewProjects, seq, func(tx *store.Tx) { tx.ReplaceProjects(projects) }) {
		l.log.Printf("discard stale projects response #%d", seq)
	}
	return l.store.Projects(), nil
}

// Members fetches the organization's members.
func (l *Loader) Members(ctx context.Context) ([]service.User, error) {
	seq := l.store.Begin(ViewMembers)
	members, err := l.svc.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	if !l.store.Commit(ViewMembers, seq, func(tx *store.Tx) { tx.ReplaceMembers(members) }) {
		l.log.Printf("discard stale members response #%d", seq)
	}
	return l.store.Members(), nil
}

// Dashboard fetches the dashboard summary.
func (l *Loader) Dashboard(ctx context.Context) (service.Dashboard, error) {
	seq := l.store.Begin(ViewDashboard)
	d, err := l.svc.Dashboard(ctx)
	if err != nil {
		return service.Dashboard{}, err
	}
	if !l.store.Commit(ViewDashboard, seq, func(tx *store.Tx) { tx.SetDashboard(d) }) {
		l.log.Printf("discard stale dashboard response #%d", seq)
	}
	if cur := l.store.Snapshot().Dashboard; cur != nil {
		return *cur, nil
	}
	return d, nil
}

// Detail is everything the project detail view shows.
type Detail struct {
	Project service.Project `yaml:"project"`
	Tasks   []service.Task  `yaml:"tasks"`
	Members []service.User  `yaml:"members"`
}

// ProjectDetail loads a project with its tasks and the member list. It
// returns service.ErrNotFound when the project no longer exists; callers
// fall back to the project listing.
func (l *Loader) ProjectDetail(ctx context.Context, id string) (Detail, error) {
	view := "project:" + id
	seq := l.store.Begin(view)
	p, err := l.svc.GetProject(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	l.store.Commit(view, seq, func(tx *store.Tx) { tx.UpsertProject(p) })

	tasks, err := l.Tasks(ctx, filter.Filter{ProjectID: id})
	if err != nil {
		return Detail{}, err
	}
	members, err := l.Members(ctx)
	if err != nil {
		return Detail{}, err
	}
	if cur, ok := l.store.Project(id); ok {
		p = cur
	}
	return Detail{Project: p, Tasks: tasks, Members: members}, nil
}

// IsGone reports whether err means the requested record does not exist.
func IsGone(err error) bool {
	return errors.Is(err, service.ErrNotFound)
}

// Team is the data behind the workload view.
type Team struct {
	Members []service.User `yaml:"members"`
	Tasks   []service.Task `yaml:"tasks"`
}

// Team loads the members and the full, unfiltered task set. Workload is
// always computed over every task regardless of any board filter.
func (l *Loader) Team(ctx context.Context) (Team, error) {
	members, err := l.Members(ctx)
	if err != nil {
		return Team{}, err
	}
	tasks, err := l.Tasks(ctx, filter.Filter{})
	if err != nil {
		return Team{}, err
	}
	return Team{Members: members, Tasks: tasks}, nil
}
