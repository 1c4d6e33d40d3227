// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"taskdeck/internal/derive"
	"taskdeck/internal/service"
)

const (
	// Separator is the separator line around section headers.
	Separator = "------------"

	// BarWidth is the number of cells of a full chart bar.
	BarWidth = 20

	dateLayout = "2006-01-02"
)

// Header formats a section header.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, Separator)
}

// TaskLine formats one task of a board column.
// Format: "  {ID}  {TITLE} [{PRIORITY}] due {DATE} @{ASSIGNEE} (overdue)"
// with the due date, assignee and overdue flag only when present.
func TaskLine(w io.Writer, t service.Task, now time.Time) {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s  %s [%s]", t.ID, normalizeTitle(t.Title), t.Priority)
	if t.Project.Name != "" {
		fmt.Fprintf(&b, " in %s", t.Project.Name)
	}
	if t.DueDate != nil {
		fmt.Fprintf(&b, " due %s", t.DueDate.Format(dateLayout))
	}
	if t.Assignee != nil {
		fmt.Fprintf(&b, " @%s", t.Assignee.Label())
	}
	if derive.IsOverdue(t, now) {
		b.WriteString(" (overdue)")
	}
	fmt.Fprintln(w, b.String())
}

// Board formats tasks as the four stage columns in workflow order.
func Board(w io.Writer, tasks []service.Task, now time.Time) {
	for _, col := range derive.Columns(tasks) {
		Header(w, fmt.Sprintf("%s (%d)", col.Status, len(col.Tasks)))
		if len(col.Tasks) == 0 {
			fmt.Fprintln(w, "  (empty)")
		}
		for _, t := range col.Tasks {
			TaskLine(w, t, now)
		}
	}
}

// ProjectLine formats a project for the project listing.
// Format: "{ID}  {NAME}  {DONE}/{TOTAL} done  {PCT}%"
func ProjectLine(w io.Writer, p service.Project) {
	fmt.Fprintf(w, "%s  %s  %d/%d done  %d%%\n", p.ID, normalizeTitle(p.Name), p.DoneTasks, p.TotalTasks, p.CompletionPercentage)
}

// Projects formats the project listing.
func Projects(w io.Writer, projects []service.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "no projects")
		return
	}
	for _, p := range projects {
		ProjectLine(w, p)
	}
}

// ProjectDetail formats a project with its board.
func ProjectDetail(w io.Writer, p service.Project, tasks []service.Task, now time.Time) {
	fmt.Fprintln(w, normalizeTitle(p.Name))
	if d := strings.TrimSpace(p.Description); d != "" {
		fmt.Fprintln(w, d)
	}
	fmt.Fprintf(w, "%s %d%% (%d/%d done)\n", bar(float64(p.CompletionPercentage)), p.CompletionPercentage, p.DoneTasks, p.TotalTasks)
	Board(w, tasks, now)
}

// Dashboard formats the dashboard summary.
func Dashboard(w io.Writer, s derive.Summary) {
	fmt.Fprintf(w, "Projects:   %d\n", s.TotalProjects)
	fmt.Fprintf(w, "Tasks:      %d\n", s.TotalTasks)
	fmt.Fprintf(w, "Completed:  %d%%\n", s.CompletedPercentage)
	fmt.Fprintf(w, "Overdue:    %d\n", s.OverdueTasks)
	fmt.Fprintf(w, "%s %d%%\n", bar(float64(s.CompletedPercentage)), s.CompletedPercentage)

	Header(w, "By stage")
	Histogram(w, s.Stages)
	Header(w, "By priority")
	Histogram(w, s.Priorities)

	Header(w, "Recent")
	if len(s.Recent) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, r := range s.Recent {
		line := fmt.Sprintf("  %s  %s [%s] %s", r.ID, normalizeTitle(r.Title), r.Priority, r.Status)
		if r.Overdue {
			line += " (overdue)"
		}
		fmt.Fprintln(w, line)
	}
}

// Histogram formats one bar per label, scaled to the largest count.
// Format: "  {LABEL:<12}{BAR} {COUNT}"
func Histogram(w io.Writer, h derive.Histogram) {
	for _, b := range h.Bars {
		fmt.Fprintf(w, "  %-12s%s %d\n", b.Label, bar(b.Width), b.Count)
	}
}

// Team formats the workload view, admins first.
func Team(w io.Writer, orgName string, admins, members []derive.MemberLoad) {
	if orgName != "" {
		fmt.Fprintln(w, orgName)
	}
	Header(w, fmt.Sprintf("Admins (%d)", len(admins)))
	for _, l := range admins {
		memberLine(w, l)
	}
	Header(w, fmt.Sprintf("Members (%d)", len(members)))
	for _, l := range members {
		memberLine(w, l)
	}
}

func memberLine(w io.Writer, l derive.MemberLoad) {
	fmt.Fprintf(w, "  [%-2s] %s <%s>  %d/%d done  %d%%\n",
		derive.Initials(l.Member.Name), l.Member.Name, l.Member.Email, l.Done, l.Assigned, l.Percent)
}

// Identity formats the logged-in identity.
func Identity(w io.Writer, id service.Identity) {
	fmt.Fprintf(w, "%s <%s>\n", id.Name, id.Email)
	fmt.Fprintf(w, "%s of %s\n", id.Role, id.OrgName)
}

// YAML writes v as a YAML document.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// bar renders a percentage as a fixed-width bar.
func bar(percent float64) string {
	filled := int(math.Round(percent / 100 * BarWidth))
	filled = max(0, min(BarWidth, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", BarWidth-filled) + "]"
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
