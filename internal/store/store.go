// Package store holds the last server-confirmed state of the organization's
// members, projects and tasks.
//
// Records are kept in fetch order and keyed by id. Reads return copies;
// callers never get a pointer into the store. Writes happen on fetch
// (replace), on create/edit confirmation (upsert) and inside the narrow
// optimistic window of a stage change or delete, which is tracked with a
// Pending marker so it can be confirmed or reverted.
package store

import (
	"sync"

	"taskdeck/internal/service"
)

// Store is the in-memory entity mirror. It is safe for concurrent use;
// overlapping writes are last-write-wins.
type Store struct {
	mu        sync.RWMutex
	members   collection[service.User]
	projects  collection[service.Project]
	tasks     collection[service.Task]
	dashboard *service.Dashboard

	issued  map[string]uint64
	applied map[string]uint64
	pending map[*Pending]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		members:  newCollection(func(u service.User) string { return u.ID }, cloneUser),
		projects: newCollection(func(p service.Project) string { return p.ID }, cloneProject),
		tasks:    newCollection(func(t service.Task) string { return t.ID }, cloneTask),
		issued:   make(map[string]uint64),
		applied:  make(map[string]uint64),
		pending:  make(map[*Pending]struct{}),
	}
}

// Snapshot is a copy of the store contents at one point in time.
type Snapshot struct {
	Members   []service.User
	Projects  []service.Project
	Tasks     []service.Task
	Dashboard *service.Dashboard
}

// Snapshot returns a copy of every collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Members:  s.members.list(),
		Projects: s.projects.list(),
		Tasks:    s.tasks.list(),
	}
	if s.dashboard != nil {
		d := cloneDashboard(*s.dashboard)
		snap.Dashboard = &d
	}
	return snap
}

// Tasks returns a copy of the loaded tasks in fetch order.
func (s *Store) Tasks() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.list()
}

// Task returns a copy of one task.
func (s *Store) Task(id string) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.get(id)
}

// Projects returns a copy of the loaded projects in fetch order.
func (s *Store) Projects() []service.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.list()
}

// Project returns a copy of one project.
func (s *Store) Project(id string) (service.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.get(id)
}

// Members returns a copy of the loaded members in fetch order.
func (s *Store) Members() []service.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members.list()
}

// ReplaceTasks replaces the whole task collection.
func (s *Store) ReplaceTasks(tasks []service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks.replace(tasks)
}

// ReplaceProjects replaces the whole project collection.
func (s *Store) ReplaceProjects(projects []service.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects.replace(projects)
}

// ReplaceMembers replaces the whole member collection.
func (s *Store) ReplaceMembers(members []service.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members.replace(members)
}

// SetDashboard stores the latest dashboard summary.
func (s *Store) SetDashboard(d service.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneDashboard(d)
	s.dashboard = &c
}

// UpsertTask replaces the task with the same id, or appends it.
func (s *Store) UpsertTask(t service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks.upsert(t)
}

// UpsertProject replaces the project with the same id, or appends it.
func (s *Store) UpsertProject(p service.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects.upsert(p)
}

// PatchProject merges the set fields of patch into a stored project.
// Reports false when the project is not loaded.
func (s *Store) PatchProject(id string, patch service.ProjectPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.projects.get(id)
	if !ok {
		return false
	}
	s.projects.upsert(patch.Apply(cur))
	return true
}
