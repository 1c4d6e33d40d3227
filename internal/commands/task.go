package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/filter"
	"taskdeck/internal/service"
)

func init() {
	Register(&TaskAddCmd{})
	Register(&TaskEditCmd{})
	Register(&MoveCmd{})
	Register(&TaskRmCmd{})
}

// TaskAddCmd implements the task-add command.
type TaskAddCmd struct {
	project     string
	description string
	status      string
	priority    string
	due         string
	assignee    string
}

func (c *TaskAddCmd) Name() string      { return "task-add" }
func (c *TaskAddCmd) Aliases() []string { return []string{"add"} }
func (c *TaskAddCmd) Synopsis() string  { return "Create a task in a project" }
func (c *TaskAddCmd) Usage() string {
	return "taskdeck task-add --project <id|name> [--status <stage>] [--priority <priority>] [--due YYYY-MM-DD] [--assignee <member>] [--description <text>] <title...>"
}
func (c *TaskAddCmd) NeedsAuth() bool { return true }

func (c *TaskAddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.project, "project", "", "")
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.assignee, "assignee", "", "")
}

func (c *TaskAddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	const fallback = "Failed to create task"

	nt := service.NewTask{
		Title:       strings.Join(args, " "),
		Description: c.description,
	}
	var err error
	if c.status != "" {
		if nt.Status, err = service.ParseStatus(c.status); err != nil {
			return env.fail(errOut, err, fallback)
		}
	}
	if c.priority != "" {
		if nt.Priority, err = service.ParsePriority(c.priority); err != nil {
			return env.fail(errOut, err, fallback)
		}
	}
	if nt.DueDate, err = parseDue(c.due); err != nil {
		return env.fail(errOut, err, fallback)
	}
	// Required fields are checked before any lookup request.
	nt.ProjectID = strings.TrimSpace(c.project)
	if err := nt.Validate(); err != nil {
		return env.fail(errOut, err, fallback)
	}
	if nt.ProjectID, err = resolveProjectID(ctx, env, nt.ProjectID); err != nil {
		return env.fail(errOut, err, fallback)
	}
	if c.assignee != "" {
		if nt.AssigneeID, err = resolveMemberID(ctx, env, c.assignee); err != nil {
			return env.fail(errOut, err, fallback)
		}
	}

	t, err := env.Mutate.CreateTask(ctx, nt)
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	env.ok(out, "created task %s", t.ID)
	return exitcode.Success
}

// TaskEditCmd implements the task-edit command.
type TaskEditCmd struct {
	title       optionalString
	description optionalString
	status      optionalString
	priority    optionalString
	due         optionalString
	assignee    optionalString
}

func (c *TaskEditCmd) Name() string      { return "task-edit" }
func (c *TaskEditCmd) Aliases() []string { return []string{"edit"} }
func (c *TaskEditCmd) Synopsis() string  { return "Change fields of a task; an empty --due or --assignee clears it" }
func (c *TaskEditCmd) Usage() string {
	return "taskdeck task-edit [--title <title>] [--description <text>] [--status <stage>] [--priority <priority>] [--due YYYY-MM-DD] [--assignee <member>] <task>"
}
func (c *TaskEditCmd) NeedsAuth() bool { return true }

func (c *TaskEditCmd) RegisterFlags(fs *flag.FlagSet) {
	for _, o := range []*optionalString{&c.title, &c.description, &c.status, &c.priority, &c.due, &c.assignee} {
		o.reset()
	}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.status, "status", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.assignee, "assignee", "")
}

func (c *TaskEditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	const fallback = "Failed to update task"
	if len(args) != 1 {
		return usageError(errOut, "task reference required")
	}

	patch := service.TaskPatch{Title: c.title.ptr(), Description: c.description.ptr()}
	if c.status.set {
		s, err := service.ParseStatus(c.status.value)
		if err != nil {
			return env.fail(errOut, err, fallback)
		}
		patch.Status = &s
	}
	if c.priority.set {
		p, err := service.ParsePriority(c.priority.value)
		if err != nil {
			return env.fail(errOut, err, fallback)
		}
		patch.Priority = &p
	}
	if c.due.set {
		due, err := parseDue(c.due.value)
		if err != nil {
			return env.fail(errOut, err, fallback)
		}
		patch.DueDate = due
		patch.ClearDueDate = due == nil
	}
	if c.assignee.set {
		id, err := resolveMemberID(ctx, env, c.assignee.value)
		if err != nil {
			return env.fail(errOut, err, fallback)
		}
		patch.AssigneeID = &id
	}
	if err := patch.Validate(); err != nil {
		return env.fail(errOut, err, fallback)
	}

	task, err := resolveTask(ctx, env, args[0])
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	updated, err := env.Mutate.EditTask(ctx, task.ID, patch)
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	env.ok(out, "updated task %s", updated.ID)
	return exitcode.Success
}

// MoveCmd implements the move command.
type MoveCmd struct{}

func (c *MoveCmd) Name() string      { return "move" }
func (c *MoveCmd) Aliases() []string { return []string{"mv"} }
func (c *MoveCmd) Synopsis() string  { return "Move a task to another stage" }
func (c *MoveCmd) Usage() string     { return "taskdeck move <task> <backlog|todo|in-progress|done>" }
func (c *MoveCmd) NeedsAuth() bool   { return true }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MoveCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	const fallback = "Failed to move task"
	if len(args) < 2 {
		return usageError(errOut, "usage: %s", c.Usage())
	}
	status, err := service.ParseStatus(strings.Join(args[1:], " "))
	if err != nil {
		return env.fail(errOut, err, fallback)
	}

	task, err := resolveTask(ctx, env, args[0])
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	if task.Status == status {
		env.ok(out, "task %s is already in %s", task.ID, status)
		return exitcode.Success
	}

	updated, err := env.Mutate.ChangeStage(ctx, task.ID, status)
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	env.ok(out, "moved task %s to %s", updated.ID, updated.Status)
	return exitcode.Success
}

// TaskRmCmd implements the task-rm command.
type TaskRmCmd struct{}

func (c *TaskRmCmd) Name() string      { return "task-rm" }
func (c *TaskRmCmd) Aliases() []string { return []string{"rm"} }
func (c *TaskRmCmd) Synopsis() string  { return "Delete a task" }
func (c *TaskRmCmd) Usage() string     { return "taskdeck task-rm <task>" }
func (c *TaskRmCmd) NeedsAuth() bool   { return true }

func (c *TaskRmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TaskRmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	const fallback = "Failed to delete task"
	if len(args) != 1 {
		return usageError(errOut, "task reference required")
	}

	task, err := resolveTask(ctx, env, args[0])
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	deleted, err := env.Mutate.DeleteTask(ctx, task.ID)
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	if !deleted {
		env.ok(out, "cancelled")
		return exitcode.Success
	}
	env.ok(out, "deleted task %s", task.ID)
	return exitcode.Success
}

// resolveTask loads the unfiltered task set and resolves ref against it.
func resolveTask(ctx context.Context, env *Env, ref string) (service.Task, error) {
	tasks, err := env.Loader.Tasks(ctx, filter.Filter{})
	if err != nil {
		return service.Task{}, err
	}
	return ResolveTask(tasks, ref)
}

func resolveProjectID(ctx context.Context, env *Env, ref string) (string, error) {
	projects, err := env.Loader.Projects(ctx)
	if err != nil {
		return "", err
	}
	p, err := ResolveProject(projects, ref)
	return p.ID, err
}

// resolveMemberID resolves ref to a member id. An empty ref clears the
// assignee.
func resolveMemberID(ctx context.Context, env *Env, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", nil
	}
	members, err := env.Loader.Members(ctx)
	if err != nil {
		return "", err
	}
	m, err := ResolveMember(members, ref)
	return m.ID, err
}
