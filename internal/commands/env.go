package commands

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/loader"
	"taskdeck/internal/mutation"
	"taskdeck/internal/output"
	"taskdeck/internal/prompt"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
)

// NewEnv wires a fresh store, loader and mutation coordinator around svc.
func NewEnv(cfg *config.Config, sess *session.Session, svc service.Service, term *prompt.Terminal, logger *log.Logger) *Env {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	l := loader.New(svc, store.New(), logger)
	var confirm mutation.Confirmer
	if term != nil {
		confirm = term
	}
	return &Env{
		Config:  cfg,
		Session: sess,
		Service: svc,
		Loader:  l,
		Mutate:  mutation.New(svc, l, confirm, logger),
		Prompt:  term,
		Log:     logger,
		Now:     time.Now,
	}
}

// fail reports err and returns the matching exit code. A rejected token
// also ends the stored session.
func (e *Env) fail(errOut io.Writer, err error, fallback string) int {
	fmt.Fprintf(errOut, "error: %s\n", service.Message(err, fallback))
	e.Log.Printf("%s: %v", fallback, err)

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		if e.Session != nil {
			if lerr := e.Session.Logout(); lerr != nil {
				e.Log.Printf("logout: %v", lerr)
			}
		}
		return exitcode.AuthError
	case service.IsValidation(err), errors.Is(err, service.ErrNotFound), errors.Is(err, prompt.ErrNoInput),
		errors.Is(err, ErrRefRequired):
		return exitcode.UserError
	}
	return exitcode.BackendError
}

// usageError prints a usage problem.
func usageError(errOut io.Writer, format string, args ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

// yamlMode reports whether output should be YAML.
func (e *Env) yamlMode() bool {
	return e.Config.Format == config.FormatYAML
}

// emit writes v as YAML, or calls text otherwise.
func (e *Env) emit(out, errOut io.Writer, v any, text func()) int {
	if !e.yamlMode() {
		text()
		return exitcode.Success
	}
	if err := output.YAML(out, v); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

// ok prints the confirmation line unless quiet.
func (e *Env) ok(out io.Writer, format string, args ...any) {
	if !e.Config.Quiet {
		fmt.Fprintf(out, format+"\n", args...)
	}
}
