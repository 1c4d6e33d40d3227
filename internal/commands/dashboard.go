package commands

import (
	"context"
	"flag"
	"io"

	"taskdeck/internal/derive"
	"taskdeck/internal/output"
)

func init() {
	Register(&DashboardCmd{})
}

// DashboardCmd implements the dashboard command.
type DashboardCmd struct{}

func (c *DashboardCmd) Name() string      { return "dashboard" }
func (c *DashboardCmd) Aliases() []string { return []string{"dash"} }
func (c *DashboardCmd) Synopsis() string  { return "Show organization totals, stage and priority charts" }
func (c *DashboardCmd) Usage() string     { return "taskdeck dashboard" }
func (c *DashboardCmd) NeedsAuth() bool   { return true }

func (c *DashboardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DashboardCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	d, err := env.Loader.Dashboard(ctx)
	if err != nil {
		return env.fail(errOut, err, "Failed to load dashboard")
	}
	summary := derive.Summarize(d, env.Now())
	return env.emit(out, errOut, summary, func() { output.Dashboard(out, summary) })
}
