package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/derive"
	"taskdeck/internal/filter"
	"taskdeck/internal/output"
)

func init() {
	Register(&TasksCmd{})
}

// TasksCmd implements the tasks command: the board grouped by stage.
type TasksCmd struct {
	status   string
	priority string
	project  string
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"board"} }
func (c *TasksCmd) Synopsis() string  { return "Show tasks as a board, optionally filtered" }
func (c *TasksCmd) Usage() string {
	return "taskdeck tasks [--status <stage>] [--priority <priority>] [--project <id|name>]"
}
func (c *TasksCmd) NeedsAuth() bool { return true }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.project, "project", "", "")
}

func (c *TasksCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}

	projectID := ""
	if c.project != "" {
		projects, err := env.Loader.Projects(ctx)
		if err != nil {
			return env.fail(errOut, err, "Failed to load projects")
		}
		p, err := ResolveProject(projects, c.project)
		if err != nil {
			return env.fail(errOut, err, "Failed to load tasks")
		}
		projectID = p.ID
	}

	board := env.Loader.NewBoard()
	for _, f := range []struct {
		name  filter.Name
		value string
	}{
		{filter.Status, c.status},
		{filter.Priority, c.priority},
		{filter.Project, projectID},
	} {
		if _, err := board.SetFilter(ctx, f.name, f.value); err != nil {
			return env.fail(errOut, err, "Invalid filter")
		}
	}

	tasks, err := board.Load(ctx)
	if err != nil {
		return env.fail(errOut, err, "Failed to load tasks")
	}
	return env.emit(out, errOut, derive.Columns(tasks), func() {
		if f := board.Filter(); f.Active() {
			fmt.Fprintf(out, "filter: %s\n", f)
		}
		output.Board(out, tasks, env.Now())
	})
}
