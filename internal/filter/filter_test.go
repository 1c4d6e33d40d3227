package filter_test

import (
	"testing"

	"taskdeck/internal/filter"
	"taskdeck/internal/service"
)

func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "1", Status: service.StatusDone, Priority: service.PriorityHigh, Project: service.Ref{ID: "p1"}},
		{ID: "2", Status: service.StatusDone, Priority: service.PriorityLow, Project: service.Ref{ID: "p1"}},
		{ID: "3", Status: service.StatusTodo, Priority: service.PriorityHigh, Project: service.Ref{ID: "p2"}},
		{ID: "4", Status: service.StatusDone, Priority: service.PriorityHigh, Project: service.Ref{ID: "p2"}},
	}
}

func ids(tasks []service.Task) string {
	s := ""
	for _, t := range tasks {
		s += t.ID
	}
	return s
}

func mustSet(t *testing.T, f *filter.Filter, name filter.Name, value string) bool {
	t.Helper()
	changed, err := f.Set(name, value)
	if err != nil {
		t.Fatalf("Set(%s, %q): %v", name, value, err)
	}
	return changed
}

func TestSet_OrderDoesNotMatter(t *testing.T) {
	var a, b filter.Filter
	mustSet(t, &a, filter.Status, "Done")
	mustSet(t, &a, filter.Priority, "High")
	mustSet(t, &b, filter.Priority, "high")
	mustSet(t, &b, filter.Status, "done")

	if !a.Equal(b) {
		t.Fatalf("expected equal filters, got %+v and %+v", a, b)
	}
	if a.Values().Encode() != b.Values().Encode() {
		t.Errorf("expected identical query, got %q and %q", a.Values().Encode(), b.Values().Encode())
	}
	if got := ids(a.Apply(sampleTasks())); got != "14" {
		t.Errorf("expected tasks 1 and 4, got %q", got)
	}
	if ids(a.Apply(sampleTasks())) != ids(b.Apply(sampleTasks())) {
		t.Error("result set depends on assignment order")
	}
}

func TestSet_Idempotent(t *testing.T) {
	var f filter.Filter
	if !mustSet(t, &f, filter.Status, "Done") {
		t.Error("first set should report a change")
	}
	if mustSet(t, &f, filter.Status, "Done") {
		t.Error("setting the same value again should not report a change")
	}
	once := ids(f.Apply(sampleTasks()))
	twice := ids(f.Apply(f.Apply(sampleTasks())))
	if once != twice {
		t.Errorf("reapplying changed the result: %q vs %q", once, twice)
	}
}

func TestSet_EmptyClears(t *testing.T) {
	var f filter.Filter
	mustSet(t, &f, filter.Project, "p2")
	if !f.Active() {
		t.Fatal("expected active filter")
	}
	if !mustSet(t, &f, filter.Project, "") {
		t.Error("clearing should report a change")
	}
	if f.Active() {
		t.Error("expected no active filter after clearing")
	}
}

func TestSet_Invalid(t *testing.T) {
	var f filter.Filter
	if _, err := f.Set(filter.Status, "Blocked"); err == nil {
		t.Error("expected error for unknown stage")
	}
	if _, err := f.Set(filter.Priority, "Urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
	if _, err := f.Set("owner", "me"); err == nil {
		t.Error("expected error for unknown filter name")
	}
	if f.Active() {
		t.Error("failed sets must not change the filter")
	}
}

func TestValues_OnlySetFilters(t *testing.T) {
	var f filter.Filter
	if enc := f.Values().Encode(); enc != "" {
		t.Errorf("expected empty query, got %q", enc)
	}
	mustSet(t, &f, filter.Project, "p1")
	mustSet(t, &f, filter.Status, "In Progress")
	if enc := f.Values().Encode(); enc != "projectId=p1&status=In+Progress" {
		t.Errorf("unexpected query %q", enc)
	}
}

func TestReset(t *testing.T) {
	var f filter.Filter
	if f.Reset() {
		t.Error("resetting an empty filter should report no change")
	}
	mustSet(t, &f, filter.Priority, "Low")
	if !f.Reset() {
		t.Error("resetting a set filter should report a change")
	}
	if got := ids(f.Apply(sampleTasks())); got != "1234" {
		t.Errorf("expected every task after reset, got %q", got)
	}
}

func TestString(t *testing.T) {
	f := filter.Filter{Status: service.StatusDone, ProjectID: "p1"}
	if got := f.String(); got != "status=Done project=p1" {
		t.Errorf("unexpected string %q", got)
	}
}
