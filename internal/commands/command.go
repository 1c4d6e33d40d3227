// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"log"
	"time"

	"taskdeck/internal/backend/googletasks"
	"taskdeck/internal/config"
	"taskdeck/internal/loader"
	"taskdeck/internal/mutation"
	"taskdeck/internal/prompt"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a logged-in session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// env is always provided; env.Session is logged in if NeedsAuth()
	// returns true.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// AdminCommand is implemented by commands only organization admins can
// use. They are left out of the help output for members.
type AdminCommand interface {
	AdminOnly() bool
}

// Mirrorer copies tasks into an external task list.
type Mirrorer interface {
	Mirror(ctx context.Context, listTitle string, tasks []service.Task) (googletasks.MirrorResult, error)
}

// MirrorFactory creates the Mirrorer for the mirror command.
type MirrorFactory func(ctx context.Context, cfg *config.Config) (Mirrorer, error)

// Env is everything a command runs against.
type Env struct {
	Config  *config.Config
	Session *session.Session
	Service service.Service
	Loader  *loader.Loader
	Mutate  *mutation.Coordinator
	Prompt  *prompt.Terminal
	Mirror  MirrorFactory
	Log     *log.Logger
	Now     func() time.Time
}
