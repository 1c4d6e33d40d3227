package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdeck help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	member := env.Session != nil && env.Session.LoggedIn() && !env.Session.IsAdmin()

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  taskdeck                  Show the dashboard (or this help when logged out)")
	for _, cmd := range DefaultRegistry.Listed(!member) {
		fmt.Fprintf(out, "  %s\n", cmd.Usage())
		fmt.Fprintf(out, "      %s\n", cmd.Synopsis())
	}
	fmt.Fprint(out, commonFlagsText)
	return exitcode.Success
}

const commonFlagsText = `
Common flags:
  --config <dir>   Override config directory
  --api <url>      Override the service URL
  --format <fmt>   Output format: text or yaml
  --yes            Answer yes to confirmation prompts
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
