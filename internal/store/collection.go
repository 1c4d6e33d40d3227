package store

import (
	"maps"

	"taskdeck/internal/service"
)

// collection is an insertion-ordered map of records.
type collection[T any] struct {
	order []string
	byID  map[string]T
	id    func(T) string
	clone func(T) T
}

func newCollection[T any](id func(T) string, clone func(T) T) collection[T] {
	return collection[T]{byID: make(map[string]T), id: id, clone: clone}
}

func (c *collection[T]) replace(items []T) {
	c.order = make([]string, 0, len(items))
	c.byID = make(map[string]T, len(items))
	for _, item := range items {
		c.upsert(item)
	}
}

func (c *collection[T]) upsert(item T) {
	id := c.id(item)
	if _, ok := c.byID[id]; !ok {
		c.order = append(c.order, id)
	}
	c.byID[id] = c.clone(item)
}

// insertAt places item at index unless a record with its id is present.
func (c *collection[T]) insertAt(index int, item T) bool {
	id := c.id(item)
	if _, ok := c.byID[id]; ok {
		return false
	}
	if index < 0 || index > len(c.order) {
		index = len(c.order)
	}
	c.order = append(c.order, "")
	copy(c.order[index+1:], c.order[index:])
	c.order[index] = id
	c.byID[id] = c.clone(item)
	return true
}

// remove deletes a record and returns it with its position.
func (c *collection[T]) remove(id string) (T, int, bool) {
	item, ok := c.byID[id]
	if !ok {
		var zero T
		return zero, -1, false
	}
	index := -1
	for i, oid := range c.order {
		if oid == id {
			index = i
			break
		}
	}
	c.order = append(c.order[:index], c.order[index+1:]...)
	delete(c.byID, id)
	return item, index, true
}

func (c *collection[T]) get(id string) (T, bool) {
	item, ok := c.byID[id]
	if !ok {
		return item, false
	}
	return c.clone(item), true
}

func (c *collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.byID[id]))
	}
	return out
}

func cloneUser(u service.User) service.User { return u }

func cloneProject(p service.Project) service.Project { return p }

func cloneTask(t service.Task) service.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if t.Assignee != nil {
		ref := *t.Assignee
		t.Assignee = &ref
	}
	return t
}

func cloneDashboard(d service.Dashboard) service.Dashboard {
	d.TasksByStatus = maps.Clone(d.TasksByStatus)
	d.TasksByPriority = maps.Clone(d.TasksByPriority)
	recent := make([]service.Task, len(d.RecentTasks))
	for i, t := range d.RecentTasks {
		recent[i] = cloneTask(t)
	}
	d.RecentTasks = recent
	return d
}
