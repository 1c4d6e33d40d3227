package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/loader"
	"taskdeck/internal/output"
	"taskdeck/internal/service"
)

func init() {
	Register(&ProjectsCmd{})
	Register(&ProjectCmd{})
	Register(&ProjectAddCmd{})
	Register(&ProjectEditCmd{})
	Register(&ProjectRmCmd{})
}

// ProjectsCmd implements the projects command.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Name() string      { return "projects" }
func (c *ProjectsCmd) Aliases() []string { return nil }
func (c *ProjectsCmd) Synopsis() string  { return "List projects with their progress" }
func (c *ProjectsCmd) Usage() string     { return "taskdeck projects" }
func (c *ProjectsCmd) NeedsAuth() bool   { return true }

func (c *ProjectsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	projects, err := env.Loader.Projects(ctx)
	if err != nil {
		return env.fail(errOut, err, "Failed to load projects")
	}
	return env.emit(out, errOut, projects, func() { output.Projects(out, projects) })
}

// ProjectCmd implements the project detail command.
type ProjectCmd struct{}

func (c *ProjectCmd) Name() string      { return "project" }
func (c *ProjectCmd) Aliases() []string { return nil }
func (c *ProjectCmd) Synopsis() string  { return "Show a project with its task board" }
func (c *ProjectCmd) Usage() string     { return "taskdeck project <id>" }
func (c *ProjectCmd) NeedsAuth() bool   { return true }

func (c *ProjectCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		return usageError(errOut, "project id required")
	}
	id := args[0]

	detail, err := env.Loader.ProjectDetail(ctx, id)
	if loader.IsGone(err) {
		// The project is gone: fall back to the listing.
		fmt.Fprintf(errOut, "error: project not found: %s\n", id)
		if code := (&ProjectsCmd{}).Run(ctx, env, nil, out, errOut); code != exitcode.Success {
			return code
		}
		return exitcode.UserError
	}
	if err != nil {
		return env.fail(errOut, err, "Failed to load project")
	}
	return env.emit(out, errOut, detail, func() {
		output.ProjectDetail(out, detail.Project, detail.Tasks, env.Now())
	})
}

// ProjectAddCmd implements the project-add command.
type ProjectAddCmd struct {
	description string
}

func (c *ProjectAddCmd) Name() string      { return "project-add" }
func (c *ProjectAddCmd) Aliases() []string { return nil }
func (c *ProjectAddCmd) Synopsis() string  { return "Create a project (admins)" }
func (c *ProjectAddCmd) Usage() string {
	return "taskdeck project-add [--description <text>] <name...>"
}
func (c *ProjectAddCmd) NeedsAuth() bool { return true }
func (c *ProjectAddCmd) AdminOnly() bool { return true }

func (c *ProjectAddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *ProjectAddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	p, err := env.Mutate.CreateProject(ctx, service.NewProject{
		Name:        strings.Join(args, " "),
		Description: c.description,
	})
	if err != nil {
		return env.fail(errOut, err, "Failed to create project")
	}
	env.ok(out, "created project %s", p.ID)
	return exitcode.Success
}

// ProjectEditCmd implements the project-edit command.
type ProjectEditCmd struct {
	name        optionalString
	description optionalString
}

func (c *ProjectEditCmd) Name() string      { return "project-edit" }
func (c *ProjectEditCmd) Aliases() []string { return nil }
func (c *ProjectEditCmd) Synopsis() string  { return "Rename a project or change its description" }
func (c *ProjectEditCmd) Usage() string {
	return "taskdeck project-edit [--name <name>] [--description <text>] <id>"
}
func (c *ProjectEditCmd) NeedsAuth() bool { return true }

func (c *ProjectEditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.name.reset()
	c.description.reset()
	fs.Var(&c.name, "name", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
}

func (c *ProjectEditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		return usageError(errOut, "project id required")
	}
	patch := service.ProjectPatch{Name: c.name.ptr(), Description: c.description.ptr()}
	p, err := env.Mutate.EditProject(ctx, args[0], patch)
	if err != nil {
		return env.fail(errOut, err, "Failed to update project")
	}
	env.ok(out, "updated project %s", p.ID)
	return exitcode.Success
}

// ProjectRmCmd implements the project-rm command.
type ProjectRmCmd struct{}

func (c *ProjectRmCmd) Name() string      { return "project-rm" }
func (c *ProjectRmCmd) Aliases() []string { return nil }
func (c *ProjectRmCmd) Synopsis() string  { return "Delete a project and all of its tasks (admins)" }
func (c *ProjectRmCmd) Usage() string     { return "taskdeck project-rm <id>" }
func (c *ProjectRmCmd) NeedsAuth() bool   { return true }
func (c *ProjectRmCmd) AdminOnly() bool   { return true }

func (c *ProjectRmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectRmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		return usageError(errOut, "project id required")
	}

	projects, err := env.Loader.Projects(ctx)
	if err != nil {
		return env.fail(errOut, err, "Failed to load projects")
	}
	p, err := ResolveProject(projects, args[0])
	if err != nil {
		return env.fail(errOut, err, "Failed to delete project")
	}

	deleted, err := env.Mutate.DeleteProject(ctx, p.ID)
	if err != nil {
		return env.fail(errOut, err, "Failed to delete project")
	}
	if !deleted {
		env.ok(out, "cancelled")
		return exitcode.Success
	}
	env.ok(out, "deleted project %s", p.ID)
	return exitcode.Success
}
