package sim

import (
	"fmt"
	"sort"
	"time"
)

// Three-phase core lifecycle estimate, in hours. Phase 1 covers the
// break-sensitive pre-cure stations, phase 2 the break-insensitive
// cure+quench pair, phase 3 the break-sensitive teardown. The split
// mirrors how the simulation actually advances each station; a single
// AdvanceTime over the sum would mis-estimate whenever a break lands on
// a phase boundary.
const (
	preCureBaseHours = 3.5 + 0.2  // max(TUBE PREP, CORE OVEN) + ASSEMBLY
	injectionWaitPad = 0.5        // average machine wait / changeover
	postCureHours    = 0.5 + 0.75 // DISASSEMBLY + cutback cleanup
)

// Core is one physical tooling unit. Units sharing a Number are
// interchangeable; Suffix identifies the unit. A nil AvailableAt means
// the unit is free now; otherwise it is reserved until that instant.
// AvailableAt only ever moves forward, by Assign.
type Core struct {
	Number      int
	Suffix      string
	AvailableAt *time.Time
	AssignedTo  string
}

// Label returns the unit's report label, e.g. "427-A".
func (c *Core) Label() string {
	return FormatCore(c.Number, c.Suffix)
}

// CorePool tracks every physical core unit, grouped by core number.
// It is owned by exactly one engine instance per run.
type CorePool struct {
	cal     *CalendarConfig
	units   map[int][]*Core
	numbers []int // stable iteration order
}

// NewCorePool builds a pool from an inventory of suffixes per core
// number. Unit order within a number is preserved: FindAvailable prefers
// earlier units, which keeps runs deterministic. A core number listed
// with no units stays in the pool; orders needing it surface as core
// shortages during admission rather than as pending-core orders.
func NewCorePool(cal *CalendarConfig, inventory map[int][]string) *CorePool {
	p := &CorePool{cal: cal, units: make(map[int][]*Core, len(inventory))}
	for number, suffixes := range inventory {
		units := make([]*Core, 0, len(suffixes))
		for _, suffix := range suffixes {
			units = append(units, &Core{Number: number, Suffix: suffix})
		}
		p.units[number] = units
		p.numbers = append(p.numbers, number)
	}
	sort.Ints(p.numbers)
	return p
}

// Has reports whether the core number appears in the inventory.
func (p *CorePool) Has(number int) bool {
	_, ok := p.units[number]
	return ok
}

// Units returns the units for a core number, in pool order.
func (p *CorePool) Units(number int) []*Core {
	return p.units[number]
}

// FindAvailable returns the first unit of the given number free at
// neededAt, or nil when every unit is still reserved past that time.
func (p *CorePool) FindAvailable(number int, neededAt time.Time) *Core {
	for _, core := range p.units[number] {
		if core.AvailableAt == nil {
			return core
		}
		if !core.AvailableAt.After(neededAt) {
			return core
		}
	}
	return nil
}

// EarliestAvailability returns the minimum reserved-until time across
// units of a number. availableNow means a unit is free immediately.
// A nil earliest with availableNow false means no unit of this number
// can ever become available (the number has no physical units).
func (p *CorePool) EarliestAvailability(number int) (earliest *time.Time, availableNow bool) {
	for _, core := range p.units[number] {
		if core.AvailableAt == nil {
			return nil, true
		}
		if earliest == nil || core.AvailableAt.Before(*earliest) {
			t := *core.AvailableAt
			earliest = &t
		}
	}
	return earliest, false
}

// Assign reserves the unit for an order admitted at blastTime and
// computes when it returns to the pool, advancing each lifecycle phase
// with the break sensitivity the simulation will actually use.
func (p *CorePool) Assign(core *Core, orderID string, blastTime time.Time, times ProcessTimes) (time.Time, error) {
	preCure := preCureBaseHours + times.InjectionHours + injectionWaitPad

	afterInjection, err := p.cal.AdvanceTime(blastTime, preCure, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("core %s pre-cure phase: %w", core.Label(), err)
	}
	afterCureQuench, err := p.cal.AdvanceTime(afterInjection, times.CureHours+times.QuenchHours, true)
	if err != nil {
		return time.Time{}, fmt.Errorf("core %s cure phase: %w", core.Label(), err)
	}
	returnTime, err := p.cal.AdvanceTime(afterCureQuench, postCureHours, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("core %s post-cure phase: %w", core.Label(), err)
	}

	core.AvailableAt = &returnTime
	core.AssignedTo = orderID
	return returnTime, nil
}
