// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// AdmissionPolicy tunes the admission scheduler's soft heuristics.
type AdmissionPolicy struct {
	// AlternateRubber prefers a candidate whose rubber type differs from
	// the previous admission, spreading demand across injection
	// machines. It is a soft preference: when no candidate differs, the
	// first one is taken.
	AlternateRubber bool
}

// Simulator is one scheduling run: the event loop plus all state it
// owns. Every run gets a fresh instance — an instance is single
// threaded and must not be shared across concurrently executing runs.
// What-if comparisons (baseline vs. hot list) use separate instances.
type Simulator struct {
	Calendar *CalendarConfig
	Cores    *CorePool
	Machines *MachinePool
	Stations map[string]Station
	Policy   AdmissionPolicy

	orders     []*Order
	processMap map[string]*ProcessRecord
	hotLookup  map[string]HotListEntry

	events EventQueue
	seq    uint64
	clock  time.Time

	parts     map[string]*PartState
	partOrder []string
	partCount int

	// Run outputs.
	Scheduled        []*ScheduledOrder
	PendingCore      []PendingOrder
	HotListShortages []CoreShortage
}

// New builds a simulator over the supplied orders, part-number process
// map, and core inventory. The calendar config is validated here; a bad
// calendar fails the construction, not the run.
func New(orders []*Order, processMap map[string]*ProcessRecord, inventory map[int][]string, cfg CalendarConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("calendar config: %w", err)
	}
	cal := &cfg
	return &Simulator{
		Calendar:   cal,
		Cores:      NewCorePool(cal, inventory),
		Machines:   NewMachinePool(cal),
		Stations:   NewStations(),
		Policy:     AdmissionPolicy{AlternateRubber: true},
		orders:     orders,
		processMap: processMap,
		hotLookup:  map[string]HotListEntry{},
		events:     make(EventQueue, 0),
		parts:      make(map[string]*PartState),
	}, nil
}

// Schedule runs the full pipeline simulation from start: classify
// orders, rank them into the five priority tiers, admit them at takt
// intervals, drain the event queue, and materialize the results. The
// run is all-or-nothing; on error no partial results are returned.
func (s *Simulator) Schedule(start time.Time, hotList []HotListEntry) ([]*ScheduledOrder, error) {
	s.hotLookup = make(map[string]HotListEntry, len(hotList))
	for _, e := range hotList {
		s.hotLookup[e.WONumber] = e
	}

	logrus.Infof("scheduling %d orders from %s (%d hot list entries)",
		len(s.orders), start.Format(time.RFC3339), len(hotList))

	schedulable := s.classifyOrders()
	logrus.Infof("schedulable: %d, pending core: %d", len(schedulable), len(s.PendingCore))

	ranked := rankOrders(schedulable, s.hotLookup)
	s.logPriorityBreakdown(ranked)

	if err := s.scheduleBlastArrivals(ranked, start); err != nil {
		return nil, fmt.Errorf("admission: %w", err)
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	s.collectResults()

	logrus.Infof("scheduled %d orders, %d pending core, %d hot list core shortages",
		len(s.Scheduled), len(s.PendingCore), len(s.HotListShortages))
	return s.Scheduled, nil
}

// ValidateInputs classifies the input orders without running a
// simulation and returns those that would be excluded as pending-core.
// Useful for checking a dataset before a run.
func (s *Simulator) ValidateInputs() []PendingOrder {
	s.PendingCore = nil
	s.classifyOrders()
	return s.PendingCore
}

// classifyOrders splits the input into schedulable orders and the
// pending-core side list. Missing mappings are data gaps, not errors.
func (s *Simulator) classifyOrders() []*orderInfo {
	var schedulable []*orderInfo
	for _, order := range s.orders {
		record := s.processMap[order.PartNumber]
		if record == nil || record.CoreNumber == 0 {
			s.PendingCore = append(s.PendingCore, PendingOrder{
				Order:  order,
				Reason: "no core mapping for part number",
			})
			continue
		}
		coreNumber := record.CoreNumber
		if !s.Cores.Has(coreNumber) {
			needed := coreNumber
			s.PendingCore = append(s.PendingCore, PendingOrder{
				Order:            order,
				Reason:           fmt.Sprintf("core %d not in inventory", coreNumber),
				CoreNumberNeeded: &needed,
			})
			continue
		}
		schedulable = append(schedulable, &orderInfo{Order: order, CoreNumber: coreNumber, Record: record})
	}
	return schedulable
}

func (s *Simulator) logPriorityBreakdown(ranked []*orderInfo) {
	counts := map[string]int{}
	for _, info := range ranked {
		counts[info.Order.Priority]++
	}
	logrus.Debugf("priority breakdown: %s=%d %s=%d %s=%d %s=%d %s=%d",
		PriorityHotASAP, counts[PriorityHotASAP],
		PriorityHotDated, counts[PriorityHotDated],
		PriorityRework, counts[PriorityRework],
		PriorityNormal, counts[PriorityNormal],
		PriorityCAVO, counts[PriorityCAVO])
}

// effectiveRubber resolves an order's rubber type: the process map wins
// over the order record, and a hot-list override wins over both.
func (s *Simulator) effectiveRubber(info *orderInfo) string {
	rubber := info.Order.RubberType
	if info.Record != nil && info.Record.RubberType != "" {
		rubber = info.Record.RubberType
	}
	if entry, ok := s.hotLookup[info.Order.WONumber]; ok && entry.RubberOverride != "" {
		rubber = entry.RubberOverride
	}
	return rubber
}

func (s *Simulator) nextPartID() string {
	s.partCount++
	return fmt.Sprintf("PART_%06d", s.partCount)
}

// schedule pushes an event onto the queue, stamping it with the next
// sequence number so equal timestamps pop in scheduling order.
func (s *Simulator) schedule(ev Event) {
	s.seq++
	heap.Push(&s.events, queuedEvent{Event: ev, seq: s.seq})
}

// run drains the event queue in (timestamp, sequence) order. Any
// handler error aborts the run; the engine holds no partial-result
// recovery, callers repair inputs and run again.
func (s *Simulator) run() error {
	for s.events.Len() > 0 {
		qe := heap.Pop(&s.events).(queuedEvent)
		s.clock = qe.Timestamp()
		if err := qe.Execute(s); err != nil {
			return fmt.Errorf("simulation at %s: %w", s.clock.Format(time.RFC3339), err)
		}
	}
	return nil
}

func (s *Simulator) part(id string) (*PartState, error) {
	part, ok := s.parts[id]
	if !ok {
		return nil, fmt.Errorf("unknown part id %q", id)
	}
	return part, nil
}

// handleBlastArrival runs BLAST's fixed cycle and schedules completion.
func (s *Simulator) handleBlastArrival(e *BlastArrivalEvent) error {
	part, err := s.part(e.PartID)
	if err != nil {
		return err
	}
	part.BlastTime = e.time
	part.CurrentStation = StationBlast

	station := s.Stations[StationBlast]
	end, err := s.Calendar.AdvanceTime(e.time, station.CycleTimeHours, false)
	if err != nil {
		return fmt.Errorf("blast cycle for %s: %w", part.WONumber, err)
	}

	part.History = append(part.History, ScheduledOperation{
		Name:       StationBlast,
		Start:      e.time,
		End:        end,
		CycleHours: end.Sub(e.time).Hours(),
	})

	s.schedule(&StationCompleteEvent{time: end, PartID: e.PartID, Station: StationBlast})
	return nil
}

// cycleTimeFor resolves a station's cycle time, using the part's
// variable durations where the station has them.
func cycleTimeFor(part *PartState, station Station) float64 {
	switch station.Name {
	case StationInjection:
		return part.Times.InjectionHours
	case StationCure:
		return part.Times.CureHours
	case StationQuench:
		return part.Times.QuenchHours
	case StationDisassembly:
		return part.Times.DisassemblyHours
	default:
		return station.CycleTimeHours
	}
}

// handleStationEntry starts an operation: resolve the cycle time, pick
// an injection machine when entering INJECTION, advance the clock with
// the station's break sensitivity, record the interval, and schedule
// the completion event.
func (s *Simulator) handleStationEntry(e *StationEntryEvent) error {
	part, err := s.part(e.PartID)
	if err != nil {
		return err
	}
	station, ok := s.Stations[e.Station]
	if !ok {
		return fmt.Errorf("station %q: %w", e.Station, ErrUnknownStation)
	}

	part.CurrentStation = e.Station
	cycle := cycleTimeFor(part, station)
	start := e.time

	if e.Station == StationInjection {
		rubber := part.RubberType
		if rubber == "" {
			rubber = "HR"
		}
		machine, machineStart, err := s.Machines.Select(rubber, start)
		if err != nil {
			return fmt.Errorf("injection for %s: %w", part.WONumber, err)
		}
		start = machineStart

		end, err := s.Calendar.AdvanceTime(start, cycle, false)
		if err != nil {
			return fmt.Errorf("injection cycle for %s: %w", part.WONumber, err)
		}
		machine.AvailableAt = end
		machine.CurrentRubber = rubber
		part.PlannedMachine = machine.ID

		part.History = append(part.History, ScheduledOperation{
			Name:       e.Station,
			Start:      start,
			End:        end,
			Resource:   machine.ID,
			CycleHours: end.Sub(start).Hours(),
		})
		s.schedule(&StationCompleteEvent{time: end, PartID: e.PartID, Station: e.Station})
		return nil
	}

	end, err := s.Calendar.AdvanceTime(start, cycle, station.ContinuesDuringBreaks)
	if err != nil {
		return fmt.Errorf("%s cycle for %s: %w", e.Station, part.WONumber, err)
	}

	part.History = append(part.History, ScheduledOperation{
		Name:       e.Station,
		Start:      start,
		End:        end,
		CycleHours: end.Sub(start).Hours(),
	})

	switch e.Station {
	case StationTubePrep:
		part.TubePrepComplete = end
	case StationCoreOven:
		part.CoreOvenComplete = end
	}

	s.schedule(&StationCompleteEvent{time: end, PartID: e.PartID, Station: e.Station})
	return nil
}

// handleStationComplete routes the part onward: BLAST fans out to the
// concurrent TUBE PREP / CORE OVEN pair; the pair synchronizes on a
// barrier before ASSEMBLY; everything else follows the routing table.
func (s *Simulator) handleStationComplete(e *StationCompleteEvent) error {
	part, err := s.part(e.PartID)
	if err != nil {
		return err
	}

	if e.Station == StationBlast {
		s.schedule(&StationEntryEvent{time: e.time, PartID: e.PartID, Station: StationTubePrep})
		s.schedule(&StationEntryEvent{time: e.time, PartID: e.PartID, Station: StationCoreOven})
		return nil
	}

	if e.Station == StationTubePrep || e.Station == StationCoreOven {
		// Proceed only once both halves of the pair are done; the
		// one-shot flag prevents a second ASSEMBLY admission.
		if !part.TubePrepComplete.IsZero() && !part.CoreOvenComplete.IsZero() && !part.AssemblyScheduled {
			part.AssemblyScheduled = true
			ready := part.TubePrepComplete
			if part.CoreOvenComplete.After(ready) {
				ready = part.CoreOvenComplete
			}
			s.schedule(&StationEntryEvent{time: ready, PartID: e.PartID, Station: StationAssembly})
		}
		return nil
	}

	routing := RoutingFor(part.IsReline)
	next, terminal, err := NextStation(routing, e.Station)
	if err != nil {
		return fmt.Errorf("routing for %s: %w", part.WONumber, err)
	}
	if terminal {
		part.CompletionTime = e.time
		part.CurrentStation = ""
		return nil
	}
	s.schedule(&StationEntryEvent{time: e.time, PartID: e.PartID, Station: next})
	return nil
}

// collectResults materializes scheduled-order records in admission
// order, which keeps repeat runs byte-for-byte comparable.
func (s *Simulator) collectResults() {
	for _, id := range s.partOrder {
		part := s.parts[id]
		if !part.Complete() {
			continue
		}

		var turnaround *int
		if part.CreationDate != nil {
			days := int(part.CompletionTime.Sub(*part.CreationDate).Hours() / 24)
			turnaround = &days
		}

		onTime := true
		if part.BasicFinishDate != nil {
			onTime = !part.CompletionTime.After(*part.BasicFinishDate)
		}

		s.Scheduled = append(s.Scheduled, &ScheduledOrder{
			WONumber:            part.WONumber,
			PartNumber:          part.PartNumber,
			Description:         part.Description,
			Customer:            part.Customer,
			IsReline:            part.IsReline,
			AssignedCore:        FormatCore(part.CoreNumber, part.CoreSuffix),
			RubberType:          part.RubberType,
			Operations:          part.History,
			BlastDate:           part.BlastTime,
			CompletionDate:      part.CompletionTime,
			TurnaroundDays:      turnaround,
			BasicFinishDate:     part.BasicFinishDate,
			PromiseDate:         part.PromiseDate,
			OnTime:              onTime,
			CreationDate:        part.CreationDate,
			PlannedMachine:      part.PlannedMachine,
			Priority:            part.Priority,
			SerialNumber:        part.SerialNumber,
			SpecialInstructions: part.SpecialInstructions,
			SupermarketLocation: part.SupermarketLocation,
			DaysIdle:            part.DaysIdle,
		})
	}
}
