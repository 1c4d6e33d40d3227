package commands

import (
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/service"
)

const dateLayout = "2006-01-02"

// optionalString is a string flag that remembers whether it was given, so
// an explicit empty value can be told apart from an absent one.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// ptr returns the value when set, nil otherwise.
func (o *optionalString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

func (o *optionalString) reset() {
	*o = optionalString{}
}

// parseDue parses a YYYY-MM-DD due date in UTC.
func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, &service.ValidationError{Message: fmt.Sprintf("invalid due date %q (want YYYY-MM-DD)", s)}
	}
	return &d, nil
}
