package store

import "taskdeck/internal/service"

// Begin issues the next fetch sequence number for view. Numbers start at 1
// and only grow.
func (s *Store) Begin(view string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[view]++
	return s.issued[view]
}

// Commit applies the response of fetch seq for view, unless a response of a
// later fetch for the same view was already applied. Reports whether apply
// ran. apply runs with the store locked and must only use tx.
func (s *Store) Commit(view string, seq uint64, apply func(tx *Tx)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied[view] {
		return false
	}
	s.applied[view] = seq
	apply(&Tx{s: s})
	return true
}

// Tx writes to a locked store from inside Commit.
type Tx struct {
	s *Store
}

// ReplaceTasks replaces the whole task collection.
func (tx *Tx) ReplaceTasks(tasks []service.Task) { tx.s.tasks.replace(tasks) }

// ReplaceProjects replaces the whole project collection.
func (tx *Tx) ReplaceProjects(projects []service.Project) { tx.s.projects.replace(projects) }

// ReplaceMembers replaces the whole member collection.
func (tx *Tx) ReplaceMembers(members []service.User) { tx.s.members.replace(members) }

// UpsertProject replaces or appends one project.
func (tx *Tx) UpsertProject(p service.Project) { tx.s.projects.upsert(p) }

// SetDashboard stores the dashboard summary.
func (tx *Tx) SetDashboard(d service.Dashboard) {
	c := cloneDashboard(d)
	tx.s.dashboard = &c
}
