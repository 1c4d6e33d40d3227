package commands

import (
	"context"
	"flag"
	"io"
	"strings"
	"testing"
)

type stubCmd struct {
	name    string
	aliases []string
	admin   bool
}

func (c *stubCmd) Name() string                   { return c.name }
func (c *stubCmd) Aliases() []string              { return c.aliases }
func (c *stubCmd) Synopsis() string               { return "" }
func (c *stubCmd) Usage() string                  { return c.name }
func (c *stubCmd) NeedsAuth() bool                { return false }
func (c *stubCmd) AdminOnly() bool                { return c.admin }
func (c *stubCmd) RegisterFlags(fs *flag.FlagSet) {}
func (c *stubCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return 0
}

func names(cmds []Command) string {
	var s []string
	for _, c := range cmds {
		s = append(s, c.Name())
	}
	return strings.Join(s, ",")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, c := range []*stubCmd{
		{name: "tasks", aliases: []string{"board"}},
		{name: "project-rm", admin: true},
		{name: "dashboard", aliases: []string{"dash"}},
	} {
		if err := r.Register(c); err != nil {
			t.Fatalf("Register(%s): %v", c.name, err)
		}
	}

	if cmd, ok := r.Find("board"); !ok || cmd.Name() != "tasks" {
		t.Errorf("expected alias board to find tasks, got %v %v", cmd, ok)
	}
	if _, ok := r.Find("nope"); ok {
		t.Error("expected unknown name to be missing")
	}

	if got := names(r.All()); got != "dashboard,project-rm,tasks" {
		t.Errorf("All() = %s", got)
	}
	if got := names(r.Listed(false)); got != "dashboard,tasks" {
		t.Errorf("Listed(false) = %s", got)
	}

	err := r.Register(&stubCmd{name: "dash"})
	if err == nil || !strings.Contains(err.Error(), `already taken by "dashboard"`) {
		t.Errorf("expected a clash on dash, got %v", err)
	}
	if cmd, _ := r.Find("dash"); cmd.Name() != "dashboard" {
		t.Error("expected a failed Register to leave the registry unchanged")
	}
}

func TestDefaultRegistryHasEveryCommand(t *testing.T) {
	want := []string{
		"dashboard", "google-login", "help", "join", "login", "logout", "mirror",
		"move", "project", "project-add", "project-edit", "project-rm", "projects",
		"register", "task-add", "task-edit", "task-rm", "tasks", "team", "version", "whoami",
	}
	if got := names(DefaultRegistry.All()); got != strings.Join(want, ",") {
		t.Errorf("registered commands:\n got %s\nwant %s", got, strings.Join(want, ","))
	}
}
