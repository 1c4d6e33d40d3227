// Package mutation applies user edits: the client-side required-field
// guard, the request, and the store update that follows.
//
// Creates and edits are pessimistic: the store changes only through one
// refetch after the service accepted the write. Stage changes and deletes
// are optimistic: the store changes first under a pending marker which is
// confirmed on success and reverted on failure.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"taskdeck/internal/loader"
	"taskdeck/internal/service"
	"taskdeck/internal/store"
)

// ErrDeclined is returned by a Confirmer when the user said no.
var ErrDeclined = errors.New("declined")

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(question string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(question string) (bool, error) { return f(question) }

// Coordinator runs every mutation against the service and the store.
type Coordinator struct {
	svc     service.Service
	store   *store.Store
	loader  *loader.Loader
	confirm Confirmer
	log     *log.Logger
}

// New creates a Coordinator writing to the loader's store. A nil confirm
// declines every delete.
func New(svc service.Service, l *loader.Loader, confirm Confirmer, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Coordinator{svc: svc, store: l.Store(), loader: l, confirm: confirm, log: logger}
}

// CreateProject creates a project and refetches the project list.
func (c *Coordinator) CreateProject(ctx context.Context, p service.NewProject) (service.Project, error) {
	if err := p.Validate(); err != nil {
		return service.Project{}, err
	}
	created, err := c.svc.CreateProject(ctx, p)
	if err != nil {
		return service.Project{}, err
	}
	c.refetchProjects(ctx)
	return created, nil
}

// EditProject updates a project and refetches the project list.
func (c *Coordinator) EditProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	if err := patch.Validate(); err != nil {
		return service.Project{}, err
	}
	updated, err := c.svc.UpdateProject(ctx, id, patch)
	if err != nil {
		return service.Project{}, err
	}
	c.refetchProjects(ctx)
	return updated, nil
}

// CreateTask creates a task and refetches tasks with the last filter.
func (c *Coordinator) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	if err := t.Validate(); err != nil {
		return service.Task{}, err
	}
	created, err := c.svc.CreateTask(ctx, t)
	if err != nil {
		return service.Task{}, err
	}
	c.refetchTasks(ctx)
	return created, nil
}

// EditTask updates a task and refetches tasks with the last filter.
func (c *Coordinator) EditTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if err := patch.Validate(); err != nil {
		return service.Task{}, err
	}
	updated, err := c.svc.UpdateTask(ctx, id, patch)
	if err != nil {
		return service.Task{}, err
	}
	c.refetchTasks(ctx)
	return updated, nil
}

// ChangeStage moves a task to status. The stored task moves at once; if the
// service rejects the change, the stage is put back.
func (c *Coordinator) ChangeStage(ctx context.Context, id string, status service.Status) (service.Task, error) {
	patch := service.StatusPatch(status)
	if err := patch.Validate(); err != nil {
		return service.Task{}, err
	}
	pending := c.store.PatchTask(id, patch)

	updated, err := c.svc.UpdateTask(ctx, id, patch)
	if err != nil {
		if c.store.Revert(pending) {
			c.log.Printf("reverted stage of task %s: %v", id, err)
		}
		return service.Task{}, err
	}
	c.store.Confirm(pending)
	c.store.UpsertTask(updated)
	return updated, nil
}

// DeleteTask asks for confirmation, then deletes a task. Reports false when
// the user declined.
func (c *Coordinator) DeleteTask(ctx context.Context, id string) (bool, error) {
	label := id
	if t, ok := c.store.Task(id); ok {
		label = fmt.Sprintf("%q", t.Title)
	}
	if ok, err := c.ask(fmt.Sprintf("Delete task %s?", label)); !ok {
		return false, err
	}

	pending := c.store.RemoveTask(id)
	if err := c.svc.DeleteTask(ctx, id); err != nil {
		if c.store.Revert(pending) {
			c.log.Printf("restored task %s: %v", id, err)
		}
		return false, err
	}
	c.store.Confirm(pending)
	return true, nil
}

// DeleteProject asks for confirmation, then deletes a project together with
// its tasks and refetches the project list. Reports false when the user
// declined.
func (c *Coordinator) DeleteProject(ctx context.Context, id string) (bool, error) {
	label := id
	if p, ok := c.store.Project(id); ok {
		label = fmt.Sprintf("%q", p.Name)
	}
	if ok, err := c.ask(fmt.Sprintf("Delete project %s and all of its tasks?", label)); !ok {
		return false, err
	}

	pending := c.store.RemoveProject(id)
	if err := c.svc.DeleteProject(ctx, id); err != nil {
		if c.store.Revert(pending) {
			c.log.Printf("restored project %s: %v", id, err)
		}
		return false, err
	}
	c.store.Confirm(pending)
	c.refetchProjects(ctx)
	return true, nil
}

// ask reports whether the user approved. With no Confirmer nothing is
// approved.
func (c *Coordinator) ask(question string) (bool, error) {
	if c.confirm == nil {
		c.log.Printf("no confirmer, declining: %s", question)
		return false, nil
	}
	ok, err := c.confirm.Confirm(question)
	if errors.Is(err, ErrDeclined) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// A failed refetch after an accepted write leaves the store stale but the
// write stands, so it is logged rather than returned.
func (c *Coordinator) refetchProjects(ctx context.Context) {
	if _, err := c.loader.Projects(ctx); err != nil {
		c.log.Printf("refetch projects: %v", err)
	}
}

func (c *Coordinator) refetchTasks(ctx context.Context) {
	if _, err := c.loader.RefreshTasks(ctx); err != nil {
		c.log.Printf("refetch tasks: %v", err)
	}
}
