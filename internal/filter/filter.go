// Package filter composes the optional task filters (stage, priority,
// project) into one query.
package filter

import (
	"fmt"
	"net/url"
	"strings"

	"taskdeck/internal/service"
)

// Name identifies one filter.
type Name string

const (
	Status   Name = "status"
	Priority Name = "priority"
	Project  Name = "project"
)

// Names lists every filter.
var Names = []Name{Status, Priority, Project}

// Filter is a conjunction of optional task predicates. The zero value
// matches every task. Setting values in any order gives the same Filter.
type Filter struct {
	Status    service.Status
	Priority  service.Priority
	ProjectID string
}

// Set changes one filter. An empty value clears it. Reports whether the
// filter changed, which is when the current result set is stale.
func (f *Filter) Set(name Name, value string) (bool, error) {
	value = strings.TrimSpace(value)
	next := *f
	switch name {
	case Status:
		next.Status = ""
		if value != "" {
			s, err := service.ParseStatus(value)
			if err != nil {
				return false, err
			}
			next.Status = s
		}
	case Priority:
		next.Priority = ""
		if value != "" {
			p, err := service.ParsePriority(value)
			if err != nil {
				return false, err
			}
			next.Priority = p
		}
	case Project:
		next.ProjectID = value
	default:
		return false, fmt.Errorf("unknown filter: %s", name)
	}
	changed := next != *f
	*f = next
	return changed, nil
}

// Reset clears every filter and reports whether anything was set.
func (f *Filter) Reset() bool {
	changed := f.Active()
	*f = Filter{}
	return changed
}

// Active reports whether any filter is set.
func (f Filter) Active() bool {
	return f.Status != "" || f.Priority != "" || f.ProjectID != ""
}

// Equal reports whether both filters select the same tasks.
func (f Filter) Equal(other Filter) bool {
	return f == other
}

// Query returns the fetch query for the set filters.
func (f Filter) Query() service.TaskQuery {
	return service.TaskQuery{Status: f.Status, Priority: f.Priority, ProjectID: f.ProjectID}
}

// Values returns the set filters as query parameters. Unset filters are
// omitted.
func (f Filter) Values() url.Values {
	return QueryValues(f.Query())
}

// QueryValues encodes q as query parameters, omitting empty fields.
func QueryValues(q service.TaskQuery) url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Priority != "" {
		v.Set("priority", string(q.Priority))
	}
	if q.ProjectID != "" {
		v.Set("projectId", q.ProjectID)
	}
	return v
}

// Match reports whether t satisfies every set filter.
func (f Filter) Match(t service.Task) bool {
	return MatchQuery(f.Query(), t)
}

// MatchQuery reports whether t satisfies every non-empty field of q.
func MatchQuery(q service.TaskQuery, t service.Task) bool {
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}
	if q.ProjectID != "" && t.Project.ID != q.ProjectID {
		return false
	}
	return true
}

// Apply returns the matching tasks in their original order.
func (f Filter) Apply(tasks []service.Task) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// String renders the set filters, e.g. "status=Done priority=High".
func (f Filter) String() string {
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.Priority != "" {
		parts = append(parts, "priority="+string(f.Priority))
	}
	if f.ProjectID != "" {
		parts = append(parts, "project="+f.ProjectID)
	}
	return strings.Join(parts, " ")
}
