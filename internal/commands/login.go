package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
	Register(&JoinCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in with email and password" }
func (c *LoginCmd) Usage() string     { return "taskdeck login [--email <email>] [--password <password>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if id, ok := env.Session.Identity(); ok {
		env.ok(out, "already logged in as %s", id.Email)
		return exitcode.Success
	}

	creds := service.Credentials{Email: c.email, Password: c.password}
	if err := ask(env, &creds.Email, "Email"); err != nil {
		return env.fail(errOut, err, "Login failed")
	}
	if err := ask(env, &creds.Password, "Password"); err != nil {
		return env.fail(errOut, err, "Login failed")
	}

	id, err := env.Session.Login(ctx, env.Service, creds)
	if err != nil {
		return env.fail(errOut, err, "Login failed")
	}
	env.ok(out, "logged in as %s (%s, %s)", id.Name, id.OrgName, id.Role)
	return exitcode.Success
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	reg service.Registration
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return nil }
func (c *RegisterCmd) Synopsis() string  { return "Create an organization and become its admin" }
func (c *RegisterCmd) Usage() string {
	return "taskdeck register [--name <name>] [--email <email>] [--password <password>] [--org <organization>]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	registrationFlags(fs, &c.reg)
}

func (c *RegisterCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runRegistration(ctx, env, c.reg, false, out, errOut)
}

// JoinCmd implements the join command.
type JoinCmd struct {
	reg service.Registration
}

func (c *JoinCmd) Name() string      { return "join" }
func (c *JoinCmd) Aliases() []string { return nil }
func (c *JoinCmd) Synopsis() string  { return "Join an existing organization by its exact name" }
func (c *JoinCmd) Usage() string {
	return "taskdeck join [--name <name>] [--email <email>] [--password <password>] [--org <organization>]"
}
func (c *JoinCmd) NeedsAuth() bool { return false }

func (c *JoinCmd) RegisterFlags(fs *flag.FlagSet) {
	registrationFlags(fs, &c.reg)
}

func (c *JoinCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runRegistration(ctx, env, c.reg, true, out, errOut)
}

func registrationFlags(fs *flag.FlagSet, reg *service.Registration) {
	fs.StringVar(&reg.Name, "name", "", "")
	fs.StringVar(&reg.Email, "email", "", "")
	fs.StringVar(&reg.Password, "password", "", "")
	fs.StringVar(&reg.OrgName, "org", "", "")
}

func runRegistration(ctx context.Context, env *Env, reg service.Registration, join bool, out, errOut io.Writer) int {
	fallback := "Registration failed"
	if join {
		fallback = "Joining failed"
	}
	if env.Session.LoggedIn() {
		return usageError(errOut, "already logged in (run: taskdeck logout)")
	}

	for _, field := range []struct {
		value *string
		label string
	}{
		{&reg.Name, "Name"},
		{&reg.Email, "Email"},
		{&reg.Password, "Password"},
		{&reg.OrgName, "Organization"},
	} {
		if err := ask(env, field.value, field.label); err != nil {
			return env.fail(errOut, err, fallback)
		}
	}

	var (
		id  service.Identity
		err error
	)
	if join {
		id, err = env.Session.Join(ctx, env.Service, reg)
	} else {
		id, err = env.Session.Register(ctx, env.Service, reg)
	}
	if err != nil {
		return env.fail(errOut, err, fallback)
	}
	env.ok(out, "logged in as %s (%s, %s)", id.Name, id.OrgName, id.Role)
	return exitcode.Success
}

// ask fills an empty value from the prompt. Without a prompt the value
// stays empty and the required-field check reports it.
func ask(env *Env, value *string, label string) error {
	if *value != "" || env.Prompt == nil {
		return nil
	}
	answer, err := env.Prompt.Ask(label)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	*value = answer
	return nil
}
