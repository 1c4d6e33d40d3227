// Package derive computes view-level facts from loaded entities: stage
// buckets, overdue flags, completion percentages, chart histograms, the
// dashboard summary and per-member workload.
//
// Everything here is a pure function of its arguments. Time-dependent
// results take now explicitly and are recomputed on every render.
package derive

import (
	"math"
	"time"

	"taskdeck/internal/service"
)

// GroupByStage partitions tasks into the four stage buckets. Every bucket
// is present, possibly empty, and keeps the input order. A task with an
// unknown stage lands in no bucket.
func GroupByStage(tasks []service.Task) map[service.Status][]service.Task {
	groups := make(map[service.Status][]service.Task, len(service.Statuses))
	for _, s := range service.Statuses {
		groups[s] = []service.Task{}
	}
	for _, t := range tasks {
		if bucket, ok := groups[t.Status]; ok {
			groups[t.Status] = append(bucket, t)
		}
	}
	return groups
}

// Column is one stage bucket of a board.
type Column struct {
	Status service.Status `yaml:"stage"`
	Tasks  []service.Task `yaml:"tasks"`
}

// Columns returns the stage buckets in workflow order.
func Columns(tasks []service.Task) []Column {
	groups := GroupByStage(tasks)
	cols := make([]Column, 0, len(service.Statuses))
	for _, s := range service.Statuses {
		cols = append(cols, Column{Status: s, Tasks: groups[s]})
	}
	return cols
}

// IsOverdue reports whether t has a due date strictly before now and is
// not Done.
func IsOverdue(t service.Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now) && t.Status != service.StatusDone
}

// CountOverdue counts the overdue tasks.
func CountOverdue(tasks []service.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if IsOverdue(t, now) {
			n++
		}
	}
	return n
}

// CompletionPercentage returns round(done/total*100), or 0 when total is 0.
func CompletionPercentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
