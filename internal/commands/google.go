package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/backend/googletasks"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/filter"
	"taskdeck/internal/service"
)

// DefaultMirror builds the Google Tasks client from the config directory.
func DefaultMirror(ctx context.Context, cfg *config.Config) (Mirrorer, error) {
	return googletasks.New(ctx, cfg)
}

func init() {
	Register(&GoogleLoginCmd{})
	Register(&MirrorCmd{})
}

// GoogleLoginCmd implements the google-login command.
type GoogleLoginCmd struct{}

func (c *GoogleLoginCmd) Name() string      { return "google-login" }
func (c *GoogleLoginCmd) Aliases() []string { return nil }
func (c *GoogleLoginCmd) Synopsis() string  { return "Connect a Google account for mirroring" }
func (c *GoogleLoginCmd) Usage() string     { return "taskdeck google-login" }
func (c *GoogleLoginCmd) NeedsAuth() bool   { return false }

func (c *GoogleLoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *GoogleLoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	cfg := env.Config
	if !cfg.HasGoogleClient() {
		fmt.Fprintf(errOut, "error: %s not found in %s\n\n", config.GoogleClientFile, cfg.Dir)
		fmt.Fprintln(errOut, "To mirror tasks into Google Tasks, you need OAuth credentials:")
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
		fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
		fmt.Fprintln(errOut, "3. Enable the Google Tasks API:")
		fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
		fmt.Fprintln(errOut, "4. Create OAuth 2.0 credentials:")
		fmt.Fprintln(errOut, "   - Click 'Create Credentials' > 'OAuth client ID'")
		fmt.Fprintln(errOut, "   - Choose 'Desktop app' as application type")
		fmt.Fprintln(errOut, "   - Download the JSON file")
		fmt.Fprintln(errOut, "5. Save it as:")
		fmt.Fprintf(errOut, "   %s\n", cfg.GoogleClientPath())
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "Then run 'taskdeck google-login' again.")
		return exitcode.AuthError
	}

	if cfg.HasGoogleToken() && googletasks.Connected(ctx, cfg) {
		env.ok(out, "already connected")
		return exitcode.Success
	}

	if err := googletasks.Authorize(ctx, cfg, errOut); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	env.ok(out, "ok")
	return exitcode.Success
}

// MirrorCmd implements the mirror command.
type MirrorCmd struct {
	list    string
	project string
}

func (c *MirrorCmd) Name() string      { return "mirror" }
func (c *MirrorCmd) Aliases() []string { return nil }
func (c *MirrorCmd) Synopsis() string  { return "Copy tasks into a Google Tasks list" }
func (c *MirrorCmd) Usage() string {
	return "taskdeck mirror [--list <title>] [--project <id|name>]"
}
func (c *MirrorCmd) NeedsAuth() bool { return true }

func (c *MirrorCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.list, "list", "", "")
	fs.StringVar(&c.list, "l", "", "")
	fs.StringVar(&c.project, "project", "", "")
}

func (c *MirrorCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	const fallback = "Mirror failed"

	title := c.list
	if title == "" {
		title = env.Session.OrgName()
	}
	if title == "" {
		title = config.AppName
	}

	var f filter.Filter
	if c.project != "" {
		id, err := resolveProjectID(ctx, env, c.project)
		if err != nil {
			return env.fail(errOut, err, fallback)
		}
		f.ProjectID = id
	}
	tasks, err := env.Loader.Tasks(ctx, f)
	if err != nil {
		return env.fail(errOut, err, "Failed to load tasks")
	}

	if env.Mirror == nil {
		fmt.Fprintln(errOut, "error: mirroring is not available")
		return exitcode.BackendError
	}
	m, err := env.Mirror(ctx, env.Config)
	if err != nil {
		return mirrorError(env, errOut, err, fallback)
	}
	res, err := m.Mirror(ctx, title, tasks)
	if err != nil {
		return mirrorError(env, errOut, err, fallback)
	}

	return env.emit(out, errOut, res, func() {
		env.ok(out, "mirrored %d task(s) to %q (%d already present)", res.Created, title, res.Skipped)
	})
}

func mirrorError(env *Env, errOut io.Writer, err error, fallback string) int {
	switch {
	case errors.Is(err, googletasks.ErrNotAuthorized):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, service.ErrTransport), service.IsValidation(err):
		return env.fail(errOut, err, fallback)
	}
	env.Log.Printf("mirror: %v", err)
	fmt.Fprintf(errOut, "error: %s: %v\n", fallback, err)
	return exitcode.BackendError
}
