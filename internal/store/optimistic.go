package store

import (
	"reflect"
	"time"

	"taskdeck/internal/service"
)

// Pending marks an optimistic write that the service has not confirmed yet.
type Pending struct {
	// Kind describes the write, e.g. "patch task" or "remove project".
	Kind string
	// ID is the id of the affected record.
	ID string

	revert func(s *Store) bool
}

// PatchTask merges patch into a stored task before the service confirms it.
// The returned marker is nil when the task is not loaded.
func (s *Store) PatchTask(id string, patch service.TaskPatch) *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.tasks.get(id)
	if !ok {
		return nil
	}
	after := patch.Apply(before)
	s.tasks.upsert(after)

	p := &Pending{Kind: "patch task", ID: id}
	p.revert = func(s *Store) bool {
		cur, ok := s.tasks.get(id)
		if !ok {
			return false
		}
		restored := revertTaskFields(cur, before, after, patch)
		s.tasks.upsert(restored)
		return true
	}
	s.pending[p] = struct{}{}
	return p
}

// RemoveTask drops a task before the service confirms the delete.
// The returned marker is nil when the task is not loaded.
func (s *Store) RemoveTask(id string) *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, index, ok := s.tasks.remove(id)
	if !ok {
		return nil
	}
	p := &Pending{Kind: "remove task", ID: id}
	p.revert = func(s *Store) bool {
		return s.tasks.insertAt(index, removed)
	}
	s.pending[p] = struct{}{}
	return p
}

type positioned struct {
	index int
	task  service.Task
}

// RemoveProject drops a project and its loaded tasks before the service
// confirms the delete. The marker is nil when neither is loaded.
func (s *Store) RemoveProject(id string) *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, projectIndex, hadProject := s.projects.remove(id)

	var tasks []positioned
	for i, tid := range s.tasks.order {
		if t := s.tasks.byID[tid]; t.Project.ID == id {
			tasks = append(tasks, positioned{index: i, task: t})
		}
	}
	for i := len(tasks) - 1; i >= 0; i-- {
		s.tasks.remove(tasks[i].task.ID)
	}
	if !hadProject && len(tasks) == 0 {
		return nil
	}

	p := &Pending{Kind: "remove project", ID: id}
	p.revert = func(s *Store) bool {
		restored := false
		if hadProject {
			restored = s.projects.insertAt(projectIndex, project)
		}
		for _, pt := range tasks {
			if s.tasks.insertAt(pt.index, pt.task) {
				restored = true
			}
		}
		return restored
	}
	s.pending[p] = struct{}{}
	return p
}

// Confirm drops the marker after the service accepted the write.
func (s *Store) Confirm(p *Pending) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, p)
}

// Revert undoes an optimistic write after the service rejected it.
// Only the fields the write touched are restored, and only where the record
// still carries the optimistic value; a removed record is re-inserted at its
// old position unless it has reappeared. Reports whether anything changed.
func (s *Store) Revert(p *Pending) bool {
	if p == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[p]; !ok {
		return false
	}
	delete(s.pending, p)
	return p.revert(s)
}

// PendingCount returns the number of unconfirmed optimistic writes.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

func revertTaskFields(cur, before, after service.Task, patch service.TaskPatch) service.Task {
	if patch.Title != nil && cur.Title == after.Title {
		cur.Title = before.Title
	}
	if patch.Description != nil && cur.Description == after.Description {
		cur.Description = before.Description
	}
	if patch.Status != nil && cur.Status == after.Status {
		cur.Status = before.Status
	}
	if patch.Priority != nil && cur.Priority == after.Priority {
		cur.Priority = before.Priority
	}
	if (patch.DueDate != nil || patch.ClearDueDate) && sameTime(cur.DueDate, after.DueDate) {
		cur.DueDate = before.DueDate
	}
	if patch.AssigneeID != nil && reflect.DeepEqual(cur.Assignee, after.Assignee) {
		cur.Assignee = before.Assignee
	}
	return cur
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
