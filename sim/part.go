package sim

import (
	"fmt"
	"time"
)

// Default per-part process durations in hours, applied when the process
// map has no value for a part number.
const (
	DefaultInjectionHours   = 0.5
	DefaultCureHours        = 1.5
	DefaultQuenchHours      = 0.75
	DefaultDisassemblyHours = 0.5
)

// Order is one work order as supplied by the data-loading layer.
type Order struct {
	WONumber    string
	PartNumber  string
	Description string
	Customer    string

	// RubberType is the compound if known up front; the process map or a
	// hot-list override may supply it otherwise.
	RubberType string

	IsReline bool

	IsRework            bool
	ReworkLeadTimeHours float64

	CreatedOn       *time.Time
	PromiseDate     *time.Time
	BasicFinishDate *time.Time

	SerialNumber        string
	SpecialInstructions string
	SupermarketLocation string
	DaysIdle            *int

	// Priority tier, stamped during ranking.
	Priority string
}

// ProcessRecord maps a part number to its core number and variable
// process durations. Nil durations fall back to the defaults.
type ProcessRecord struct {
	CoreNumber       int
	RubberType       string
	InjectionHours   *float64
	CureHours        *float64
	QuenchHours      *float64
	DisassemblyHours *float64
}

// ProcessTimes is a ProcessRecord with every duration resolved. It is
// computed once at admission and never re-derived per station.
type ProcessTimes struct {
	InjectionHours   float64
	CureHours        float64
	QuenchHours      float64
	DisassemblyHours float64
}

// Resolve applies defaults to missing durations.
func (r *ProcessRecord) Resolve() ProcessTimes {
	pt := ProcessTimes{
		InjectionHours:   DefaultInjectionHours,
		CureHours:        DefaultCureHours,
		QuenchHours:      DefaultQuenchHours,
		DisassemblyHours: DefaultDisassemblyHours,
	}
	if r == nil {
		return pt
	}
	if r.InjectionHours != nil && *r.InjectionHours > 0 {
		pt.InjectionHours = *r.InjectionHours
	}
	if r.CureHours != nil && *r.CureHours > 0 {
		pt.CureHours = *r.CureHours
	}
	if r.QuenchHours != nil && *r.QuenchHours > 0 {
		pt.QuenchHours = *r.QuenchHours
	}
	if r.DisassemblyHours != nil && *r.DisassemblyHours > 0 {
		pt.DisassemblyHours = *r.DisassemblyHours
	}
	return pt
}

// HotListEntry is one row of the externally supplied priority override
// list. ASAP entries outrank dated ones; row position is the final tie
// break so the list's own ordering is stable.
type HotListEntry struct {
	WONumber            string
	IsASAP              bool
	NeedByDate          *time.Time
	DateReqMade         *time.Time
	RowPosition         int
	RubberOverride      string
	SpecialInstructions string
}

// PartState tracks one admitted order through the simulation. It is
// created at BLAST admission and mutated only by the event loop.
type PartState struct {
	PartID      string
	WONumber    string
	PartNumber  string
	Description string
	Customer    string
	IsReline    bool
	RubberType  string
	CoreNumber  int
	CoreSuffix  string

	Times ProcessTimes

	BlastTime      time.Time
	CompletionTime time.Time
	CurrentStation string

	// Barrier bookkeeping for the TUBE PREP / CORE OVEN pair.
	TubePrepComplete  time.Time
	CoreOvenComplete  time.Time
	AssemblyScheduled bool

	History []ScheduledOperation

	PromiseDate         *time.Time
	CreationDate        *time.Time
	BasicFinishDate     *time.Time
	SerialNumber        string
	SpecialInstructions string
	SupermarketLocation string
	DaysIdle            *int

	PlannedMachine string
	Priority       string
}

// Complete reports whether the part reached the end of its routing.
func (p *PartState) Complete() bool {
	return !p.CompletionTime.IsZero()
}

// ScheduledOperation is one station interval in a part's timeline.
type ScheduledOperation struct {
	Name       string
	Start      time.Time
	End        time.Time
	Resource   string // injection machine id, empty elsewhere
	CycleHours float64
}

// ScheduledOrder is the immutable per-order result record.
type ScheduledOrder struct {
	WONumber    string
	PartNumber  string
	Description string
	Customer    string
	IsReline    bool

	AssignedCore string // "427-A"
	RubberType   string

	Operations []ScheduledOperation

	BlastDate      time.Time
	CompletionDate time.Time

	TurnaroundDays  *int
	BasicFinishDate *time.Time
	PromiseDate     *time.Time
	OnTime          bool
	CreationDate    *time.Time

	PlannedMachine string
	Priority       string

	SerialNumber        string
	SpecialInstructions string
	SupermarketLocation string
	DaysIdle            *int
}

// PendingOrder is an order excluded from the admission pool because its
// core mapping is missing or its core number is not in inventory.
type PendingOrder struct {
	Order            *Order
	Reason           string
	CoreNumberNeeded *int
}

// CoreShortage records a hot-list order that never obtained a core
// during admission.
type CoreShortage struct {
	WONumber         string
	CoreNumberNeeded int
	Entry            HotListEntry
}

// FormatCore renders the "number-suffix" core label used in reports.
func FormatCore(number int, suffix string) string {
	return fmt.Sprintf("%d-%s", number, suffix)
}
