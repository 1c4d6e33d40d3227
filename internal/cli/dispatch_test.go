package cli_test

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"taskdeck/internal/backend/rest"
	"taskdeck/internal/cli"
	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, logger *log.Logger) (service.Service, error) {
		return svc, nil
	}
}

func newFakeService() *testutil.FakeService {
	svc := testutil.NewFakeService("Acme")
	svc.Now = func() time.Time { return now }
	svc.AddMember("u1", "Ada Lovelace", "ada@acme.test", service.RoleAdmin, "secret")
	svc.AddProject("p1", "Launch")
	svc.AddTask(service.Task{ID: "t1", Title: "Plan", Status: service.StatusTodo, Priority: service.PriorityHigh, Project: service.Ref{ID: "p1"}})
	svc.AddTask(service.Task{ID: "t2", Title: "Ship", Status: service.StatusBacklog, Priority: service.PriorityLow, Project: service.Ref{ID: "p1"}})
	return svc
}

func newDispatcher(factory cli.ServiceFactory, input string) *cli.Dispatcher {
	d := cli.NewDispatcher(commands.DefaultRegistry, factory)
	d.SetInput(strings.NewReader(input))
	d.SetClock(func() time.Time { return now })
	return d
}

func run(d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// login logs ada in with the config directory dir.
func login(t *testing.T, d *cli.Dispatcher, dir string, extra ...string) {
	t.Helper()
	args := append([]string{"login", "--config", dir, "--email", "ada@acme.test", "--password", "secret"}, extra...)
	if _, stderr, code := run(d, args...); code != exitcode.Success {
		t.Fatalf("login failed with %d: %s", code, stderr)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(newDispatcher(testFactory(newFakeService()), ""), "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	_, stderr, code := run(newDispatcher(testFactory(newFakeService()), ""), "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	stdout, stderr, code := run(newDispatcher(testFactory(newFakeService()), ""), "help", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	stdout, stderr, code := run(newDispatcher(testFactory(newFakeService()), ""), "version", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskdeck 0.1.0\n" {
		t.Errorf("expected 'taskdeck 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(newDispatcher(testFactory(newFakeService()), ""), "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	_, stderr, code := run(newDispatcher(testFactory(newFakeService()), ""), "login", "--email")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -email\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_InvalidFormat(t *testing.T) {
	_, stderr, code := run(newDispatcher(testFactory(newFakeService()), ""), "version", "--config", t.TempDir(), "--format", "xml")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid format: xml\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	svc := newFakeService()
	_, stderr, code := run(newDispatcher(testFactory(svc), ""), "projects", "--config", t.TempDir())

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: taskdeck login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(svc.Calls()) != 0 {
		t.Errorf("expected no requests, got %v", svc.Calls())
	}
}

func TestDispatcher_NoArgs(t *testing.T) {
	svc := newFakeService()
	dir := t.TempDir()
	d := newDispatcher(testFactory(svc), "")

	// Logged out: help.
	t.Setenv("XDG_CONFIG_HOME", dir)
	stdout, _, code := run(d)
	if code != exitcode.Success || !strings.Contains(stdout, "Usage:") {
		t.Errorf("expected help when logged out, got %d %q", code, stdout)
	}

	// Logged in: dashboard.
	login(t, d, dir+"/taskdeck")
	stdout, _, code = run(d)
	if code != exitcode.Success || !strings.HasPrefix(stdout, "Projects:   1\n") {
		t.Errorf("expected the dashboard when logged in, got %d %q", code, stdout)
	}
}

func TestDispatcher_SessionPersists(t *testing.T) {
	svc := newFakeService()
	dir := t.TempDir()
	d := newDispatcher(testFactory(svc), "")

	login(t, d, dir)

	stdout, stderr, code := run(d, "projects", "--config", dir)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "p1  Launch  0/2 done  0%\n" {
		t.Errorf("unexpected output %q", stdout)
	}

	if _, _, code := run(d, "logout", "--config", dir); code != exitcode.Success {
		t.Fatalf("logout failed with %d", code)
	}
	if _, _, code := run(d, "projects", "--config", dir); code != exitcode.AuthError {
		t.Errorf("expected exit code %d after logout, got %d", exitcode.AuthError, code)
	}
}

func TestDispatcher_FormatYAML(t *testing.T) {
	dir := t.TempDir()
	d := newDispatcher(testFactory(newFakeService()), "")
	login(t, d, dir)

	stdout, _, code := run(d, "projects", "--config", dir, "--format", "yaml")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stdout, "- id: p1\n  name: Launch\n") {
		t.Errorf("unexpected yaml:\n%s", stdout)
	}
}

func TestDispatcher_YesSkipsPrompt(t *testing.T) {
	svc := newFakeService()
	dir := t.TempDir()
	d := newDispatcher(testFactory(svc), "")
	login(t, d, dir)

	stdout, stderr, code := run(d, "task-rm", "--config", dir, "--yes", "t2")

	if code != exitcode.Success || stdout != "deleted task t2\n" {
		t.Errorf("expected delete, got %d %q %q", code, stdout, stderr)
	}
}

func TestDispatcher_PromptWithoutInput(t *testing.T) {
	svc := newFakeService()
	dir := t.TempDir()
	d := newDispatcher(testFactory(svc), "")
	login(t, d, dir)

	_, stderr, code := run(d, "rm", "--config", dir, "t2")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, `Delete task "Ship"? [y/N] `) {
		t.Errorf("expected the question on stderr, got %q", stderr)
	}
	if svc.CallCount(testutil.OpDeleteTask) != 0 {
		t.Error("expected no delete request")
	}
}

func TestDispatcher_APIFlag(t *testing.T) {
	var got string
	factory := func(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, logger *log.Logger) (service.Service, error) {
		got = cfg.APIURL
		return newFakeService(), nil
	}

	run(newDispatcher(factory, ""), "version", "--config", t.TempDir(), "--api", "http://tracker.test/api/")

	if got != "http://tracker.test/api" {
		t.Errorf("expected the flag to override the API URL, got %q", got)
	}
}

func TestDispatcher_DebugLogsRequests(t *testing.T) {
	srv := testutil.NewFakeServer(t, newFakeService())
	factory := func(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, logger *log.Logger) (service.Service, error) {
		return rest.New(cfg, tokens, logger), nil
	}
	dir := t.TempDir()
	d := newDispatcher(factory, "")

	login(t, d, dir, "--api", srv.APIURL())

	_, stderr, code := run(d, "tasks", "--config", dir, "--api", srv.APIURL(), "--debug")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if !strings.Contains(stderr, "debug: ") || !strings.Contains(stderr, "GET /tasks") {
		t.Errorf("expected a debug line for the request, got %q", stderr)
	}
}

func TestDispatcher_RESTRoundTrip(t *testing.T) {
	svc := newFakeService()
	srv := testutil.NewFakeServer(t, svc)
	factory := func(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, logger *log.Logger) (service.Service, error) {
		return rest.New(cfg, tokens, logger), nil
	}
	dir := t.TempDir()
	d := newDispatcher(factory, "")

	login(t, d, dir, "--api", srv.APIURL())

	stdout, stderr, code := run(d, "move", "--config", dir, "--api", srv.APIURL(), "t1", "done")
	if code != exitcode.Success || stdout != "moved task t1 to Done\n" {
		t.Fatalf("expected move, got %d %q %q", code, stdout, stderr)
	}

	stdout, _, code = run(d, "tasks", "--config", dir, "--api", srv.APIURL(), "--status", "done")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "  t1  Plan [High] in Launch\n") {
		t.Errorf("expected t1 in Done, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "Ship") {
		t.Errorf("expected the filter applied server-side, got:\n%s", stdout)
	}
}
