package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultChangeoverHours is the cost of switching an injection machine
// to a different rubber compound.
const DefaultChangeoverHours = 1.0

// InjectionMachine is one Desma press with its rubber specializations.
// A zero AvailableAt means the machine is free. CurrentRubber is empty
// until the machine has run its first part.
type InjectionMachine struct {
	ID              string
	RubberTypes     []string
	CurrentRubber   string
	AvailableAt     time.Time
	ChangeoverHours float64
}

// CanRun reports whether the machine is specialized for the rubber type.
func (m *InjectionMachine) CanRun(rubber string) bool {
	for _, r := range m.RubberTypes {
		if r == rubber {
			return true
		}
	}
	return false
}

// NeedsChangeover reports whether running rubber requires a compound
// switch. A fresh machine never needs one.
func (m *InjectionMachine) NeedsChangeover(rubber string) bool {
	return m.CurrentRubber != "" && m.CurrentRubber != rubber
}

// ChangeoverFor returns the changeover cost in hours, zero if none.
func (m *InjectionMachine) ChangeoverFor(rubber string) float64 {
	if m.NeedsChangeover(rubber) {
		return m.ChangeoverHours
	}
	return 0
}

// MachinePool holds the injection machine fleet for one engine run.
// The fleet order is the deterministic tie-break for Select.
type MachinePool struct {
	cal       *CalendarConfig
	machines  []*InjectionMachine
	flexIndex int
}

// NewMachinePool builds the plant's five-press fleet: Desma 1-2 run HR,
// Desma 3-4 run XE, and Desma 5 is the flex machine covering XR/XD/XE/HR.
func NewMachinePool(cal *CalendarConfig) *MachinePool {
	return &MachinePool{
		cal: cal,
		machines: []*InjectionMachine{
			{ID: "Desma 1", RubberTypes: []string{"HR"}, ChangeoverHours: DefaultChangeoverHours},
			{ID: "Desma 2", RubberTypes: []string{"HR"}, ChangeoverHours: DefaultChangeoverHours},
			{ID: "Desma 3", RubberTypes: []string{"XE"}, ChangeoverHours: DefaultChangeoverHours},
			{ID: "Desma 4", RubberTypes: []string{"XE"}, ChangeoverHours: DefaultChangeoverHours},
			{ID: "Desma 5", RubberTypes: []string{"XR", "XD", "XE", "HR"}, ChangeoverHours: DefaultChangeoverHours},
		},
		flexIndex: 4,
	}
}

// Machines returns the fleet in pool order.
func (p *MachinePool) Machines() []*InjectionMachine {
	return p.machines
}

// Select picks the machine for a rubber type needed at neededAt and the
// time it can actually start, including any changeover. Among the
// specialized candidates the earliest start wins, ties broken by fleet
// order. With no specialized machine the flex press is used regardless;
// that is a data mismatch, so it is surfaced as a warning.
//
// Select does not mutate the machine; the caller commits AvailableAt and
// CurrentRubber once the operation end time is known.
func (p *MachinePool) Select(rubber string, neededAt time.Time) (*InjectionMachine, time.Time, error) {
	var best *InjectionMachine
	var bestStart time.Time

	for _, m := range p.machines {
		if !m.CanRun(rubber) {
			continue
		}
		start := neededAt
		if m.AvailableAt.After(start) {
			start = m.AvailableAt
		}
		if changeover := m.ChangeoverFor(rubber); changeover > 0 {
			var err error
			if start, err = p.cal.AdvanceTime(start, changeover, false); err != nil {
				return nil, time.Time{}, fmt.Errorf("changeover on %s: %w", m.ID, err)
			}
		}
		if best == nil || start.Before(bestStart) {
			best, bestStart = m, start
		}
	}

	if best != nil {
		return best, bestStart, nil
	}

	flex := p.machines[p.flexIndex]
	logrus.Warnf("no injection machine specialized for rubber %q; falling back to %s", rubber, flex.ID)
	start := neededAt
	if flex.AvailableAt.After(start) {
		start = flex.AvailableAt
	}
	return flex, start, nil
}
