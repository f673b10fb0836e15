// Admission scheduler: walks calendar time at per-weekday takt
// intervals and injects ranked orders into the pipeline as BLAST
// arrivals, gated by core availability.

package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// admissionCandidate is one order that could be admitted at the current
// takt slot.
type admissionCandidate struct {
	index  int
	info   *orderInfo
	core   *Core
	rubber string
}

// scheduleBlastArrivals consumes the ranked queue slot by slot.
//
// Per slot, candidates are drawn from the same priority tier as the
// first remaining order; when that tier has none, the first available
// order from any tier is taken so lower tiers never starve behind an
// empty top tier. Among same-tier candidates a differing rubber type
// from the previous admission is preferred (soft, see AdmissionPolicy).
//
// When no remaining order has an available core, the slot jumps to the
// earliest core-availability time, clamped to be no sooner than the
// regular next slot. Orders whose core can never become available are
// left unadmitted; hot-list entries among them are recorded as core
// shortages.
func (s *Simulator) scheduleBlastArrivals(ranked []*orderInfo, start time.Time) error {
	remaining := append([]*orderInfo(nil), ranked...)
	currentSlot := start
	lastRubber := ""

	for len(remaining) > 0 {
		candidates := s.collectCandidates(remaining, currentSlot)

		if len(candidates) == 0 {
			nextSlot, done, err := s.jumpToNextAvailability(remaining, currentSlot)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			currentSlot = nextSlot
			continue
		}

		selected := candidates[0]
		if s.Policy.AlternateRubber && lastRubber != "" && len(candidates) > 1 {
			for _, c := range candidates {
				if c.rubber != "" && c.rubber != lastRubber {
					selected = c
					break
				}
			}
		}

		if err := s.admit(selected, currentSlot); err != nil {
			return err
		}
		lastRubber = selected.rubber
		remaining = append(remaining[:selected.index], remaining[selected.index+1:]...)

		takt := s.Calendar.TaktFor(currentSlot.Weekday())
		next, err := s.Calendar.AdvanceTime(currentSlot, float64(takt)/60, false)
		if err != nil {
			return fmt.Errorf("advance takt slot: %w", err)
		}
		currentSlot = next
	}
	return nil
}

// collectCandidates gathers admissible orders for the slot: all
// core-available orders in the head tier, or the first core-available
// order from any tier when the head tier has none.
func (s *Simulator) collectCandidates(remaining []*orderInfo, slot time.Time) []admissionCandidate {
	var candidates []admissionCandidate

	headPriority := remaining[0].Order.Priority
	for i, info := range remaining {
		if info.Order.Priority != headPriority {
			break
		}
		if core := s.Cores.FindAvailable(info.CoreNumber, slot); core != nil {
			candidates = append(candidates, admissionCandidate{index: i, info: info, core: core, rubber: s.effectiveRubber(info)})
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	for i, info := range remaining {
		if core := s.Cores.FindAvailable(info.CoreNumber, slot); core != nil {
			return []admissionCandidate{{index: i, info: info, core: core, rubber: s.effectiveRubber(info)}}
		}
	}
	return nil
}

// admit creates the part state, reserves its core, and emits the
// BLAST_ARRIVAL event. Rework orders are pushed forward by their lead
// time before entering the pipeline.
func (s *Simulator) admit(c admissionCandidate, slot time.Time) error {
	order := c.info.Order
	times := c.info.Record.Resolve()

	blastTime := slot
	if order.IsRework && order.ReworkLeadTimeHours > 0 {
		var err error
		blastTime, err = s.Calendar.AdvanceTime(slot, order.ReworkLeadTimeHours, false)
		if err != nil {
			return fmt.Errorf("rework lead time for %s: %w", order.WONumber, err)
		}
	}

	partID := s.nextPartID()
	part := &PartState{
		PartID:              partID,
		WONumber:            order.WONumber,
		PartNumber:          order.PartNumber,
		Description:         order.Description,
		Customer:            order.Customer,
		IsReline:            order.IsReline,
		RubberType:          c.rubber,
		CoreNumber:          c.info.CoreNumber,
		CoreSuffix:          c.core.Suffix,
		Times:               times,
		PromiseDate:         order.PromiseDate,
		CreationDate:        order.CreatedOn,
		BasicFinishDate:     order.BasicFinishDate,
		SerialNumber:        order.SerialNumber,
		SpecialInstructions: order.SpecialInstructions,
		SupermarketLocation: order.SupermarketLocation,
		DaysIdle:            order.DaysIdle,
		Priority:            order.Priority,
	}
	s.parts[partID] = part
	s.partOrder = append(s.partOrder, partID)

	returnTime, err := s.Cores.Assign(c.core, order.WONumber, blastTime, times)
	if err != nil {
		return fmt.Errorf("assign core for %s: %w", order.WONumber, err)
	}
	logrus.Debugf("admit %s (%s) core %s at %s, core returns %s",
		order.WONumber, order.Priority, c.core.Label(),
		blastTime.Format(time.RFC3339), returnTime.Format(time.RFC3339))

	s.schedule(&BlastArrivalEvent{time: blastTime, PartID: partID})
	return nil
}

// jumpToNextAvailability moves the slot forward to the earliest time
// any remaining order's core frees up. done is true when no remaining
// order can ever obtain a core; hot-list entries among them are then
// recorded as shortages.
func (s *Simulator) jumpToNextAvailability(remaining []*orderInfo, slot time.Time) (time.Time, bool, error) {
	var earliest *time.Time
	for _, info := range remaining {
		avail, now := s.Cores.EarliestAvailability(info.CoreNumber)
		if now {
			// A unit freed between slots; retry from the current slot.
			t := slot
			earliest = &t
			break
		}
		if avail == nil {
			continue // no physical unit will ever serve this order
		}
		if earliest == nil || avail.Before(*earliest) {
			earliest = avail
		}
	}

	if earliest == nil {
		for _, info := range remaining {
			wo := info.Order.WONumber
			entry, ok := s.hotLookup[wo]
			if !ok {
				continue
			}
			logrus.Warnf("hot list order %s: no core %d unit ever becomes available", wo, info.CoreNumber)
			s.HotListShortages = append(s.HotListShortages, CoreShortage{
				WONumber:         wo,
				CoreNumberNeeded: info.CoreNumber,
				Entry:            entry,
			})
		}
		return time.Time{}, true, nil
	}

	takt := s.Calendar.TaktFor(slot.Weekday())
	nextSlot, err := s.Calendar.AdvanceTime(slot, float64(takt)/60, false)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("advance takt slot: %w", err)
	}
	if earliest.After(nextSlot) {
		nextSlot = *earliest
	}
	aligned, err := s.Calendar.NextUnblocked(nextSlot, false)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("align takt slot: %w", err)
	}
	return aligned, false, nil
}
