package prompt_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"taskdeck/internal/prompt"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\ny\n", true},
		{"yes", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := prompt.New(strings.NewReader(tt.input), &out, false).Confirm("Delete task?")
		if err != nil {
			t.Errorf("input %q: unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("input %q: expected %v, got %v", tt.input, tt.want, got)
		}
		if !strings.HasPrefix(out.String(), "Delete task? [y/N] ") {
			t.Errorf("input %q: unexpected prompt %q", tt.input, out.String())
		}
	}
}

func TestConfirm_EOF(t *testing.T) {
	_, err := prompt.New(strings.NewReader(""), &bytes.Buffer{}, false).Confirm("Delete?")
	if !errors.Is(err, prompt.ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestConfirm_AssumeYes(t *testing.T) {
	var out bytes.Buffer
	ok, err := prompt.New(strings.NewReader(""), &out, true).Confirm("Delete?")
	if err != nil || !ok {
		t.Errorf("expected yes, got %v, %v", ok, err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no prompt, got %q", out.String())
	}
}

func TestAsk(t *testing.T) {
	var out bytes.Buffer
	term := prompt.New(strings.NewReader("  hunter2 \nsecond"), &out, true)

	got, err := term.Ask("Password")
	if err != nil || got != "hunter2" {
		t.Errorf("expected hunter2, got %q, %v", got, err)
	}
	if out.String() != "Password: " {
		t.Errorf("unexpected prompt %q", out.String())
	}
	if got, err := term.Ask("Again"); err != nil || got != "second" {
		t.Errorf("expected the unterminated last line, got %q, %v", got, err)
	}
	if _, err := term.Ask("More"); !errors.Is(err, prompt.ErrNoInput) {
		t.Errorf("expected ErrNoInput at end of input, got %v", err)
	}
}
