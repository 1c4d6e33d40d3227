package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"taskdeck/internal/derive"
	"taskdeck/internal/output"
	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func TestBoard(t *testing.T) {
	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	tasks := []service.Task{
		{ID: "t1", Title: "Plan", Status: service.StatusTodo, Priority: service.PriorityHigh, DueDate: &due,
			Assignee: &service.Ref{ID: "u1", Name: "Ada"}, Project: service.Ref{ID: "p1", Name: "Launch"}},
		{ID: "t2", Title: "Ship\nit", Status: service.StatusDone, Priority: service.PriorityLow, DueDate: &due},
		{ID: "t3", Title: "  ", Status: service.StatusInProgress, Priority: service.PriorityMedium, Assignee: &service.Ref{ID: "u9"}},
	}

	var buf bytes.Buffer
	output.Board(&buf, tasks, now)
	testutil.Golden(t, "board", buf.Bytes())
}

func TestDashboard(t *testing.T) {
	s := derive.Summary{
		TotalProjects:       1,
		TotalTasks:          4,
		DoneTasks:           1,
		CompletedPercentage: 25,
		OverdueTasks:        1,
		Stages: derive.StageHistogram(map[service.Status]int{
			service.StatusBacklog: 1, service.StatusTodo: 1, service.StatusInProgress: 1, service.StatusDone: 1,
		}),
		Priorities: derive.PriorityHistogram(map[service.Priority]int{
			service.PriorityHigh: 2, service.PriorityMedium: 1, service.PriorityLow: 1,
		}),
		Recent: []derive.RecentTask{
			{Task: service.Task{ID: "t4", Title: "Ship", Status: service.StatusDone, Priority: service.PriorityHigh}},
			{Task: service.Task{ID: "t1", Title: "Plan", Status: service.StatusTodo, Priority: service.PriorityLow}, Overdue: true},
		},
	}

	var buf bytes.Buffer
	output.Dashboard(&buf, s)
	testutil.Golden(t, "dashboard", buf.Bytes())
}

func TestProjects(t *testing.T) {
	var buf bytes.Buffer
	output.Projects(&buf, []service.Project{
		{ID: "p1", Name: "Launch", DoneTasks: 1, TotalTasks: 2, CompletionPercentage: 50},
		{ID: "p2", Name: "Docs"},
	})
	want := "p1  Launch  1/2 done  50%\np2  Docs  0/0 done  0%\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	output.Projects(&buf, nil)
	if buf.String() != "no projects\n" {
		t.Errorf("unexpected empty listing %q", buf.String())
	}
}

func TestTeam(t *testing.T) {
	var buf bytes.Buffer
	output.Team(&buf, "Acme",
		[]derive.MemberLoad{{Member: service.User{Name: "Ada Lovelace", Email: "ada@acme.test"}, Assigned: 2, Done: 1, Percent: 50}},
		[]derive.MemberLoad{{Member: service.User{Name: "Cher", Email: "cher@acme.test"}}},
	)
	want := "Acme\n" +
		"------------\nAdmins (1)\n------------\n" +
		"  [AL] Ada Lovelace <ada@acme.test>  1/2 done  50%\n" +
		"------------\nMembers (1)\n------------\n" +
		"  [C ] Cher <cher@acme.test>  0/0 done  0%\n"
	if buf.String() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	err := output.YAML(&buf, service.Project{ID: "p1", Name: "Launch", CompletionPercentage: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"id: p1\n", "name: Launch\n", "completionPercentage: 50\n"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in:\n%s", want, buf.String())
		}
	}
}
