// Package prompt asks the user blocking yes/no questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned when input ends before an answer was given.
var ErrNoInput = errors.New("no answer on input")

// Terminal reads answers line by line. With AssumeYes set every question
// is answered yes without reading.
type Terminal struct {
	in        *bufio.Reader
	out       io.Writer
	AssumeYes bool
}

// New returns a Terminal reading from in and writing questions to out.
func New(in io.Reader, out io.Writer, assumeYes bool) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, AssumeYes: assumeYes}
}

// Confirm asks question and waits for y/yes or n/no. An empty answer is no.
func (t *Terminal) Confirm(question string) (bool, error) {
	if t.AssumeYes {
		return true, nil
	}
	for {
		fmt.Fprintf(t.out, "%s [y/N] ", question)
		line, err := t.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "":
			if err == nil {
				return false, nil
			}
		}
		if err == io.EOF {
			return false, ErrNoInput
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(t.out, "please answer y or n")
	}
}

// Ask prints question and returns the trimmed answer line.
func (t *Terminal) Ask(question string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", question)
	line, err := t.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err == io.EOF && line == "" {
		return "", ErrNoInput
	}
	if err != nil && err != io.EOF {
		return "", err
	}
	return line, nil
}
