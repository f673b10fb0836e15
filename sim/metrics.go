package sim

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Summary holds the aggregate KPIs for one completed run.
type Summary struct {
	TotalScheduled int
	OnTime         int
	OnTimePct      float64
	RelineCount    int
	RelinePct      float64

	AvgTurnaroundDays *float64

	EarliestCompletion *time.Time
	LatestCompletion   *time.Time

	PendingCore      int
	HotListShortages int

	AvgPipelineHours *float64
	MinPipelineHours *float64
	MaxPipelineHours *float64
}

// Summary aggregates KPIs over the scheduled orders. Call after
// Schedule has returned.
func (s *Simulator) Summary() Summary {
	sum := Summary{
		PendingCore:      len(s.PendingCore),
		HotListShortages: len(s.HotListShortages),
	}
	if len(s.Scheduled) == 0 {
		return sum
	}

	sum.TotalScheduled = len(s.Scheduled)

	var turnaroundTotal int
	var turnaroundCount int
	var pipelineHours []float64

	for _, o := range s.Scheduled {
		if o.OnTime {
			sum.OnTime++
		}
		if o.IsReline {
			sum.RelineCount++
		}
		if o.TurnaroundDays != nil {
			turnaroundTotal += *o.TurnaroundDays
			turnaroundCount++
		}
		if !o.CompletionDate.IsZero() {
			t := o.CompletionDate
			if sum.EarliestCompletion == nil || t.Before(*sum.EarliestCompletion) {
				c := t
				sum.EarliestCompletion = &c
			}
			if sum.LatestCompletion == nil || t.After(*sum.LatestCompletion) {
				c := t
				sum.LatestCompletion = &c
			}
			if !o.BlastDate.IsZero() {
				pipelineHours = append(pipelineHours, t.Sub(o.BlastDate).Hours())
			}
		}
	}

	sum.OnTimePct = float64(sum.OnTime) / float64(sum.TotalScheduled) * 100
	sum.RelinePct = float64(sum.RelineCount) / float64(sum.TotalScheduled) * 100

	if turnaroundCount > 0 {
		avg := float64(turnaroundTotal) / float64(turnaroundCount)
		sum.AvgTurnaroundDays = &avg
	}
	if len(pipelineHours) > 0 {
		minH, maxH, total := pipelineHours[0], pipelineHours[0], 0.0
		for _, h := range pipelineHours {
			total += h
			if h < minH {
				minH = h
			}
			if h > maxH {
				maxH = h
			}
		}
		avg := total / float64(len(pipelineHours))
		sum.AvgPipelineHours = &avg
		sum.MinPipelineHours = &minH
		sum.MaxPipelineHours = &maxH
	}
	return sum
}

// Log prints the summary through logrus at Info level.
func (sum Summary) Log() {
	logrus.Infof("orders: scheduled=%d on-time=%d (%.1f%%) reline=%d (%.1f%%) pending-core=%d hot-list-shortages=%d",
		sum.TotalScheduled, sum.OnTime, sum.OnTimePct, sum.RelineCount, sum.RelinePct,
		sum.PendingCore, sum.HotListShortages)
	if sum.AvgTurnaroundDays != nil {
		logrus.Infof("turnaround: average %.1f days", *sum.AvgTurnaroundDays)
	}
	if sum.AvgPipelineHours != nil {
		logrus.Infof("pipeline flow: avg=%.1fh min=%.1fh max=%.1fh",
			*sum.AvgPipelineHours, *sum.MinPipelineHours, *sum.MaxPipelineHours)
	}
	if sum.EarliestCompletion != nil {
		logrus.Infof("completion range: %s to %s",
			sum.EarliestCompletion.Format(time.RFC3339), sum.LatestCompletion.Format(time.RFC3339))
	}
}
