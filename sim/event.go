package sim

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Event is one simulation event. Each event carries its scheduled
// timestamp and an Execute method that advances engine state when the
// event is popped from the queue.
type Event interface {
	Timestamp() time.Time
	Execute(*Simulator) error
}

// BlastArrivalEvent admits a part into the pipeline at the BLAST station.
type BlastArrivalEvent struct {
	time   time.Time
	PartID string
}

// Timestamp returns the scheduled admission time.
func (e *BlastArrivalEvent) Timestamp() time.Time { return e.time }

// Execute runs BLAST's fixed cycle and schedules its completion.
func (e *BlastArrivalEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< blast arrival: %s at %s", e.PartID, e.time.Format(time.RFC3339))
	return sim.handleBlastArrival(e)
}

// StationEntryEvent starts a part's operation at a station.
type StationEntryEvent struct {
	time    time.Time
	PartID  string
	Station string
}

// Timestamp returns the scheduled entry time.
func (e *StationEntryEvent) Timestamp() time.Time { return e.time }

// Execute resolves the cycle time, records the operation interval, and
// schedules the matching StationCompleteEvent.
func (e *StationEntryEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< station entry: %s -> %s at %s", e.PartID, e.Station, e.time.Format(time.RFC3339))
	return sim.handleStationEntry(e)
}

// StationCompleteEvent finishes a part's operation at a station and
// routes it onward.
type StationCompleteEvent struct {
	time    time.Time
	PartID  string
	Station string
}

// Timestamp returns the completion time.
func (e *StationCompleteEvent) Timestamp() time.Time { return e.time }

// Execute advances the part to the next routing step, or through the
// TUBE PREP / CORE OVEN barrier, or marks it complete.
func (e *StationCompleteEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< station complete: %s <- %s at %s", e.PartID, e.Station, e.time.Format(time.RFC3339))
	return sim.handleStationComplete(e)
}

// queuedEvent pairs an event with its scheduling sequence number. Events
// with equal timestamps pop in scheduling order, which makes runs fully
// reproducible regardless of heap internals.
type queuedEvent struct {
	Event
	seq uint64
}

// EventQueue implements heap.Interface, ordering events by
// (timestamp, sequence).
type EventQueue []queuedEvent

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	ti, tj := eq[i].Timestamp(), eq[j].Timestamp()
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	return eq[i].seq < eq[j].seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(queuedEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}
