package derive

import (
	"sort"
	"time"

	"taskdeck/internal/service"
)

// RecentTask is a dashboard entry with its overdue flag evaluated.
type RecentTask struct {
	service.Task `yaml:",inline"`
	Overdue      bool `yaml:"overdue"`
}

// Summary is the dashboard view.
type Summary struct {
	TotalProjects       int          `yaml:"totalProjects"`
	TotalTasks          int          `yaml:"totalTasks"`
	DoneTasks           int          `yaml:"doneTasks"`
	CompletedPercentage int          `yaml:"completedPercentage"`
	OverdueTasks        int          `yaml:"overdueTasks"`
	Stages              Histogram    `yaml:"stages"`
	Priorities          Histogram    `yaml:"priorities"`
	Recent              []RecentTask `yaml:"recentTasks"`
}

// Summarize builds the dashboard view from the service's summary. Recent
// tasks keep the order the service sent; only their overdue flag is
// computed here.
func Summarize(d service.Dashboard, now time.Time) Summary {
	s := Summary{
		TotalProjects:       d.TotalProjects,
		TotalTasks:          d.TotalTasks,
		DoneTasks:           d.DoneTasks,
		CompletedPercentage: d.CompletedPercentage,
		OverdueTasks:        d.OverdueTasks,
		Stages:              StageHistogram(d.TasksByStatus),
		Priorities:          PriorityHistogram(d.TasksByPriority),
		Recent:              make([]RecentTask, 0, len(d.RecentTasks)),
	}
	for _, t := range d.RecentTasks {
		s.Recent = append(s.Recent, RecentTask{Task: t, Overdue: IsOverdue(t, now)})
	}
	return s
}

// Tally computes the dashboard shape from a complete set of projects and
// tasks, the way the service does: recent tasks are the recentLimit most
// recently created, newest first.
func Tally(projects []service.Project, tasks []service.Task, now time.Time, recentLimit int) service.Dashboard {
	d := service.Dashboard{
		TotalProjects:   len(projects),
		TotalTasks:      len(tasks),
		OverdueTasks:    CountOverdue(tasks, now),
		TasksByStatus:   make(map[service.Status]int, len(service.Statuses)),
		TasksByPriority: make(map[service.Priority]int, len(service.Priorities)),
	}
	for _, s := range service.Statuses {
		d.TasksByStatus[s] = 0
	}
	for _, p := range service.Priorities {
		d.TasksByPriority[p] = 0
	}
	for _, t := range tasks {
		if _, ok := d.TasksByStatus[t.Status]; ok {
			d.TasksByStatus[t.Status]++
		}
		if _, ok := d.TasksByPriority[t.Priority]; ok {
			d.TasksByPriority[t.Priority]++
		}
	}
	d.DoneTasks = d.TasksByStatus[service.StatusDone]
	d.CompletedPercentage = CompletionPercentage(d.DoneTasks, d.TotalTasks)

	recent := make([]service.Task, len(tasks))
	copy(recent, tasks)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if recentLimit >= 0 && len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	d.RecentTasks = recent
	return d
}

// ProjectProgress fills a project's counters from its tasks, the way the
// service computes them.
func ProjectProgress(p service.Project, tasks []service.Task) service.Project {
	p.TotalTasks, p.DoneTasks = 0, 0
	for _, t := range tasks {
		if t.Project.ID != p.ID {
			continue
		}
		p.TotalTasks++
		if t.Status == service.StatusDone {
			p.DoneTasks++
		}
	}
	p.CompletionPercentage = CompletionPercentage(p.DoneTasks, p.TotalTasks)
	return p
}
