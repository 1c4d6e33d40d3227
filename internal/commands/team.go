package commands

import (
	"context"
	"flag"
	"io"

	"taskdeck/internal/derive"
	"taskdeck/internal/output"
)

func init() {
	Register(&TeamCmd{})
}

// TeamCmd implements the team command: members with their task workload.
type TeamCmd struct{}

func (c *TeamCmd) Name() string      { return "team" }
func (c *TeamCmd) Aliases() []string { return []string{"members"} }
func (c *TeamCmd) Synopsis() string  { return "List members with assigned and done tasks" }
func (c *TeamCmd) Usage() string     { return "taskdeck team" }
func (c *TeamCmd) NeedsAuth() bool   { return true }

func (c *TeamCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TeamCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	team, err := env.Loader.Team(ctx)
	if err != nil {
		return env.fail(errOut, err, "Failed to load team")
	}
	loads := derive.Workload(team.Members, team.Tasks)
	return env.emit(out, errOut, loads, func() {
		admins, members := derive.SplitByRole(loads)
		output.Team(out, env.Session.OrgName(), admins, members)
	})
}
