package derive

import "taskdeck/internal/service"

// Bar is one category of a histogram. Width is the bar length in percent
// of the largest bar.
type Bar struct {
	Label string  `yaml:"label"`
	Count int     `yaml:"count"`
	Width float64 `yaml:"width"`
}

// Histogram holds bars in display order. Max is the largest count, never
// below 1 so widths stay defined when every bar is empty.
type Histogram struct {
	Bars []Bar `yaml:"bars"`
	Max  int   `yaml:"max"`
}

// PriorityDisplayOrder is the order priorities are charted in.
var PriorityDisplayOrder = []service.Priority{service.PriorityHigh, service.PriorityMedium, service.PriorityLow}

// StageHistogram charts counts per stage in workflow order. Missing stages
// count as 0.
func StageHistogram(counts map[service.Status]int) Histogram {
	labels := make([]string, len(service.Statuses))
	values := make([]int, len(service.Statuses))
	for i, s := range service.Statuses {
		labels[i] = string(s)
		values[i] = counts[s]
	}
	return newHistogram(labels, values)
}

// PriorityHistogram charts counts per priority, highest first.
func PriorityHistogram(counts map[service.Priority]int) Histogram {
	labels := make([]string, len(PriorityDisplayOrder))
	values := make([]int, len(PriorityDisplayOrder))
	for i, p := range PriorityDisplayOrder {
		labels[i] = string(p)
		values[i] = counts[p]
	}
	return newHistogram(labels, values)
}

func newHistogram(labels []string, values []int) Histogram {
	h := Histogram{Max: 1}
	for _, v := range values {
		h.Max = max(h.Max, v)
	}
	for i, label := range labels {
		h.Bars = append(h.Bars, Bar{
			Label: label,
			Count: values[i],
			Width: float64(values[i]) / float64(h.Max) * 100,
		})
	}
	return h
}
