package derive

import (
	"strings"
	"unicode"

	"taskdeck/internal/service"
)

// MemberLoad is one member's share of the loaded tasks.
type MemberLoad struct {
	Member   service.User `yaml:"member"`
	Assigned int          `yaml:"assigned"`
	Done     int          `yaml:"done"`
	Percent  int          `yaml:"percent"`
}

// Workload counts assigned and done tasks per member, in member order.
// Figures cover only the tasks passed in. Unassigned tasks and tasks
// assigned to someone outside members are ignored.
func Workload(members []service.User, tasks []service.Task) []MemberLoad {
	index := make(map[string]int, len(members))
	loads := make([]MemberLoad, len(members))
	for i, m := range members {
		index[m.ID] = i
		loads[i].Member = m
	}
	for _, t := range tasks {
		if t.Assignee == nil {
			continue
		}
		i, ok := index[t.Assignee.ID]
		if !ok {
			continue
		}
		loads[i].Assigned++
		if t.Status == service.StatusDone {
			loads[i].Done++
		}
	}
	for i := range loads {
		loads[i].Percent = CompletionPercentage(loads[i].Done, loads[i].Assigned)
	}
	return loads
}

// SplitByRole separates admins from regular members, keeping order.
func SplitByRole(loads []MemberLoad) (admins, members []MemberLoad) {
	for _, l := range loads {
		switch l.Member.Role {
		case service.RoleAdmin:
			admins = append(admins, l)
		case service.RoleMember:
			members = append(members, l)
		}
	}
	return admins, members
}

// Initials returns up to two upper-case initials of name.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		out = append(out, unicode.ToUpper([]rune(word)[0]))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
