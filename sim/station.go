package sim

import (
	"errors"
	"fmt"
)

// Station names used by the routing tables.
const (
	StationBlast         = "BLAST"
	StationTubePrep      = "TUBE PREP"
	StationCoreOven      = "CORE OVEN"
	StationAssembly      = "ASSEMBLY"
	StationInjection     = "INJECTION"
	StationCure          = "CURE"
	StationQuench        = "QUENCH"
	StationDisassembly   = "DISASSEMBLY"
	StationBldEndCutback = "BLD END CUTBACK"
	StationInjEndCutback = "INJ END CUTBACK"
	StationCutThreads    = "CUT THREADS"
	StationInspect       = "INSPECT"
)

// ErrUnknownStation is returned when a station name cannot be resolved
// against a routing table. That is a configuration mismatch between the
// station registry and the routing, and the run must fail rather than
// silently dropping the part.
var ErrUnknownStation = errors.New("station not in routing")

// Station is a production operation with its fixed parameters.
// ContinuesDuringBreaks is set only for CURE and QUENCH, whose physical
// processes cannot be paused once started. ConcurrentWith pairs
// TUBE PREP with CORE OVEN for the pre-assembly barrier.
type Station struct {
	Name                  string
	CycleTimeHours        float64
	NumMachines           int
	Capacity              int
	ContinuesDuringBreaks bool
	ConcurrentWith        string
}

// NewStations builds the station registry with the plant's parameters.
func NewStations() map[string]Station {
	return map[string]Station{
		StationBlast:    {Name: StationBlast, CycleTimeHours: 0.15, NumMachines: 1, Capacity: 1},
		StationTubePrep: {Name: StationTubePrep, CycleTimeHours: 3.5, NumMachines: 1, Capacity: 18, ConcurrentWith: StationCoreOven},
		StationCoreOven: {Name: StationCoreOven, CycleTimeHours: 2.5, NumMachines: 1, Capacity: 12, ConcurrentWith: StationTubePrep},
		StationAssembly: {Name: StationAssembly, CycleTimeHours: 0.2, NumMachines: 1, Capacity: 1},
		// Injection cycle time is per-part; 0.5h is the default.
		StationInjection:     {Name: StationInjection, CycleTimeHours: 0.5, NumMachines: 5, Capacity: 1},
		StationCure:          {Name: StationCure, CycleTimeHours: 1.5, NumMachines: 1, Capacity: 16, ContinuesDuringBreaks: true},
		StationQuench:        {Name: StationQuench, CycleTimeHours: 0.75, NumMachines: 1, Capacity: 16, ContinuesDuringBreaks: true},
		StationDisassembly:   {Name: StationDisassembly, CycleTimeHours: 0.5, NumMachines: 1, Capacity: 1},
		StationBldEndCutback: {Name: StationBldEndCutback, CycleTimeHours: 0.25, NumMachines: 2, Capacity: 1},
		StationInjEndCutback: {Name: StationInjEndCutback, CycleTimeHours: 0.25, NumMachines: 2, Capacity: 1},
		StationCutThreads:    {Name: StationCutThreads, CycleTimeHours: 1.0, NumMachines: 1, Capacity: 1},
		StationInspect:       {Name: StationInspect, CycleTimeHours: 0.25, NumMachines: 1, Capacity: 1},
	}
}

// NewStatorRouting is the full station sequence for new stator builds.
var NewStatorRouting = []string{
	StationBlast, StationTubePrep, StationCoreOven, StationAssembly,
	StationInjection, StationCure, StationQuench, StationDisassembly,
	StationBldEndCutback, StationInjEndCutback, StationCutThreads,
	StationInspect,
}

// RelineRouting is the refurbishment sequence; relines skip CUT THREADS.
var RelineRouting = []string{
	StationBlast, StationTubePrep, StationCoreOven, StationAssembly,
	StationInjection, StationCure, StationQuench, StationDisassembly,
	StationBldEndCutback, StationInjEndCutback, StationInspect,
}

// RoutingFor returns the station sequence for a part type.
func RoutingFor(isReline bool) []string {
	if isReline {
		return RelineRouting
	}
	return NewStatorRouting
}

// NextStation resolves the step after current in routing. terminal is
// true when current is the last station (a valid end of routing, not an
// error). A current station missing from the routing entirely returns
// ErrUnknownStation.
func NextStation(routing []string, current string) (next string, terminal bool, err error) {
	for i, name := range routing {
		if name != current {
			continue
		}
		if i == len(routing)-1 {
			return "", true, nil
		}
		return routing[i+1], false, nil
	}
	return "", false, fmt.Errorf("station %q: %w", current, ErrUnknownStation)
}
