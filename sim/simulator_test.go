package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// schedStart is Monday 05:30, right after the day-shift handover.
var schedStart = at(mon, 0, 5, 30)

func newTestSim(t *testing.T, orders []*Order, processMap map[string]*ProcessRecord, inventory map[int][]string) *Simulator {
	t.Helper()
	engine, err := New(orders, processMap, inventory, NewCalendarConfig(nil, 12, nil, 0))
	require.NoError(t, err)
	return engine
}

func opByName(t *testing.T, ops []ScheduledOperation, name string) ScheduledOperation {
	t.Helper()
	for _, op := range ops {
		if op.Name == name {
			return op
		}
	}
	t.Fatalf("operation %q not in timeline", name)
	return ScheduledOperation{}
}

func opNames(ops []ScheduledOperation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Name
	}
	return out
}

func TestScheduleSingleOrderTimeline(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{{WONumber: "WO-1001", PartNumber: "STR-100", Customer: "Acme"}},
		map[string]*ProcessRecord{"STR-100": {CoreNumber: 427, RubberType: "XE"}},
		map[int][]string{427: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	o := scheduled[0]
	assert.Equal(t, "WO-1001", o.WONumber)
	assert.Equal(t, "427-A", o.AssignedCore)
	assert.Equal(t, "XE", o.RubberType)
	assert.Equal(t, "Desma 3", o.PlannedMachine)
	assert.Equal(t, PriorityNormal, o.Priority)
	assert.True(t, o.OnTime, "no finish date defaults to on time")
	assert.Nil(t, o.TurnaroundDays, "no creation date, no turnaround")

	// The timeline follows the new-build routing in order.
	assert.Equal(t, NewStatorRouting, opNames(o.Operations))

	blast := opByName(t, o.Operations, StationBlast)
	assert.Equal(t, schedStart, blast.Start)
	assert.Equal(t, at(mon, 0, 5, 39), blast.End)
	assert.Equal(t, blast.Start, o.BlastDate)

	// TUBE PREP and CORE OVEN both start when BLAST ends.
	tubePrep := opByName(t, o.Operations, StationTubePrep)
	coreOven := opByName(t, o.Operations, StationCoreOven)
	assert.Equal(t, blast.End, tubePrep.Start)
	assert.Equal(t, blast.End, coreOven.Start)

	// TUBE PREP pauses for the 09:00 break; CORE OVEN finishes before it.
	assert.Equal(t, at(mon, 0, 9, 24), tubePrep.End)
	assert.Equal(t, at(mon, 0, 8, 9), coreOven.End)

	// ASSEMBLY waits for the slower half of the pair.
	assembly := opByName(t, o.Operations, StationAssembly)
	assert.Equal(t, tubePrep.End, assembly.Start)
	assert.Equal(t, at(mon, 0, 9, 36), assembly.End)

	injection := opByName(t, o.Operations, StationInjection)
	assert.Equal(t, assembly.End, injection.Start)
	assert.Equal(t, at(mon, 0, 10, 6), injection.End)
	assert.Equal(t, "Desma 3", injection.Resource)

	// CURE spans the 11:00 lunch without pausing.
	cure := opByName(t, o.Operations, StationCure)
	assert.Equal(t, injection.End, cure.Start)
	assert.Equal(t, at(mon, 0, 11, 36), cure.End)
	assert.Equal(t, 90*time.Minute, cure.End.Sub(cure.Start))

	quench := opByName(t, o.Operations, StationQuench)
	assert.Equal(t, at(mon, 0, 12, 21), quench.End)

	assert.Equal(t, at(mon, 0, 14, 36), o.CompletionDate)
}

func TestScheduleAssemblyExactlyOnce(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{{WONumber: "WO-1", PartNumber: "STR-100"}},
		map[string]*ProcessRecord{"STR-100": {CoreNumber: 427}},
		map[int][]string{427: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	count := 0
	for _, op := range scheduled[0].Operations {
		if op.Name == StationAssembly {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestScheduleRelineSkipsCutThreads(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-NEW", PartNumber: "STR-100", CreatedOn: tp(at(mon, -5, 0, 0))},
			{WONumber: "WO-RELINE", PartNumber: "XN-200", IsReline: true, CreatedOn: tp(at(mon, -4, 0, 0))},
		},
		map[string]*ProcessRecord{
			"STR-100": {CoreNumber: 427},
			"XN-200":  {CoreNumber: 428},
		},
		map[int][]string{427: {"A"}, 428: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)

	byWO := map[string]*ScheduledOrder{}
	for _, o := range scheduled {
		byWO[o.WONumber] = o
	}
	assert.Equal(t, NewStatorRouting, opNames(byWO["WO-NEW"].Operations))
	assert.Equal(t, RelineRouting, opNames(byWO["WO-RELINE"].Operations))
	assert.NotContains(t, opNames(byWO["WO-RELINE"].Operations), StationCutThreads)
}

func TestScheduleTaktSpacing(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-1", PartNumber: "STR-100", CreatedOn: tp(at(mon, -5, 0, 0))},
			{WONumber: "WO-2", PartNumber: "STR-200", CreatedOn: tp(at(mon, -4, 0, 0))},
		},
		map[string]*ProcessRecord{
			"STR-100": {CoreNumber: 427},
			"STR-200": {CoreNumber: 428},
		},
		map[int][]string{427: {"A"}, 428: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)

	assert.Equal(t, schedStart, scheduled[0].BlastDate)
	assert.Equal(t, schedStart.Add(30*time.Minute), scheduled[1].BlastDate)
}

func TestScheduleRubberAlternation(t *testing.T) {
	orders := func() []*Order {
		return []*Order{
			{WONumber: "WO-HR1", PartNumber: "P-HR1", CreatedOn: tp(at(mon, -9, 0, 0))},
			{WONumber: "WO-HR2", PartNumber: "P-HR2", CreatedOn: tp(at(mon, -8, 0, 0))},
			{WONumber: "WO-XE", PartNumber: "P-XE", CreatedOn: tp(at(mon, -7, 0, 0))},
		}
	}
	processMap := map[string]*ProcessRecord{
		"P-HR1": {CoreNumber: 1, RubberType: "HR"},
		"P-HR2": {CoreNumber: 2, RubberType: "HR"},
		"P-XE":  {CoreNumber: 3, RubberType: "XE"},
	}
	inventory := map[int][]string{1: {"A"}, 2: {"A"}, 3: {"A"}}

	engine := newTestSim(t, orders(), processMap, inventory)
	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 3)

	// After the first HR admission the XE candidate jumps the queue.
	assert.Equal(t, "WO-HR1", scheduled[0].WONumber)
	assert.Equal(t, "WO-XE", scheduled[1].WONumber)
	assert.Equal(t, "WO-HR2", scheduled[2].WONumber)

	// With alternation off, admission is pure FIFO.
	engine = newTestSim(t, orders(), processMap, inventory)
	engine.Policy.AlternateRubber = false
	scheduled, err = engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 3)
	assert.Equal(t, "WO-HR1", scheduled[0].WONumber)
	assert.Equal(t, "WO-HR2", scheduled[1].WONumber)
	assert.Equal(t, "WO-XE", scheduled[2].WONumber)
}

func TestScheduleHotListJumpsQueue(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-OLD", PartNumber: "STR-100", CreatedOn: tp(at(mon, -30, 0, 0))},
			{WONumber: "WO-HOT", PartNumber: "STR-200", CreatedOn: tp(at(mon, -1, 0, 0))},
		},
		map[string]*ProcessRecord{
			"STR-100": {CoreNumber: 427},
			"STR-200": {CoreNumber: 428},
		},
		map[int][]string{427: {"A"}, 428: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, []HotListEntry{
		{WONumber: "WO-HOT", IsASAP: true},
	})
	require.NoError(t, err)
	require.Len(t, scheduled, 2)

	assert.Equal(t, "WO-HOT", scheduled[0].WONumber)
	assert.Equal(t, PriorityHotASAP, scheduled[0].Priority)
	assert.Equal(t, schedStart, scheduled[0].BlastDate)
	assert.Equal(t, "WO-OLD", scheduled[1].WONumber)
}

func TestScheduleSharedCoreDefersSecondOrder(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-1", PartNumber: "STR-100", CreatedOn: tp(at(mon, -5, 0, 0))},
			{WONumber: "WO-2", PartNumber: "STR-100", CreatedOn: tp(at(mon, -4, 0, 0))},
		},
		map[string]*ProcessRecord{"STR-100": {CoreNumber: 427, RubberType: "XE"}},
		map[int][]string{427: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)

	first, second := scheduled[0], scheduled[1]
	assert.Equal(t, "WO-1", first.WONumber)
	assert.Equal(t, "WO-2", second.WONumber)

	// The single unit returns after the first order's teardown; the
	// second admission waits for exactly that instant.
	assert.Equal(t, at(mon, 0, 13, 57), second.BlastDate)
	firstQuench := opByName(t, first.Operations, StationQuench)
	assert.True(t, second.BlastDate.After(firstQuench.End))
	assert.Equal(t, "427-A", second.AssignedCore)
}

func TestScheduleReworkLeadTime(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{{
			WONumber: "WO-RW", PartNumber: "STR-100",
			IsRework: true, ReworkLeadTimeHours: 2,
		}},
		map[string]*ProcessRecord{"STR-100": {CoreNumber: 427}},
		map[int][]string{427: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	assert.Equal(t, PriorityRework, scheduled[0].Priority)
	assert.Equal(t, schedStart.Add(2*time.Hour), scheduled[0].BlastDate)
}

func TestSchedulePendingCoreClassification(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-OK", PartNumber: "STR-100"},
			{WONumber: "WO-NOMAP", PartNumber: "STR-UNKNOWN"},
			{WONumber: "WO-NOCORE", PartNumber: "STR-999"},
		},
		map[string]*ProcessRecord{
			"STR-100": {CoreNumber: 427},
			"STR-999": {CoreNumber: 999},
		},
		map[int][]string{427: {"A"}},
	)

	scheduled, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "WO-OK", scheduled[0].WONumber)

	require.Len(t, engine.PendingCore, 2)
	byWO := map[string]PendingOrder{}
	for _, p := range engine.PendingCore {
		byWO[p.Order.WONumber] = p
	}
	assert.Equal(t, "no core mapping for part number", byWO["WO-NOMAP"].Reason)
	assert.Nil(t, byWO["WO-NOMAP"].CoreNumberNeeded)
	require.NotNil(t, byWO["WO-NOCORE"].CoreNumberNeeded)
	assert.Equal(t, 999, *byWO["WO-NOCORE"].CoreNumberNeeded)
}

func TestScheduleHotListCoreShortage(t *testing.T) {
	// Core 500 is inventoried but has no physical units: the order can
	// never be admitted, and being on the hot list makes that a shortage.
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-HOT", PartNumber: "STR-500"},
			{WONumber: "WO-NORMAL", PartNumber: "STR-500B"},
		},
		map[string]*ProcessRecord{
			"STR-500":  {CoreNumber: 500},
			"STR-500B": {CoreNumber: 500},
		},
		map[int][]string{500: {}},
	)

	scheduled, err := engine.Schedule(schedStart, []HotListEntry{
		{WONumber: "WO-HOT", IsASAP: true},
	})
	require.NoError(t, err)
	assert.Empty(t, scheduled)
	assert.Empty(t, engine.PendingCore)

	require.Len(t, engine.HotListShortages, 1)
	assert.Equal(t, "WO-HOT", engine.HotListShortages[0].WONumber)
	assert.Equal(t, 500, engine.HotListShortages[0].CoreNumberNeeded)
}

func TestScheduleOnTimeAgainstFinishDate(t *testing.T) {
	run := func(finish time.Time) *ScheduledOrder {
		engine := newTestSim(t,
			[]*Order{{WONumber: "WO-1", PartNumber: "STR-100", BasicFinishDate: tp(finish)}},
			map[string]*ProcessRecord{"STR-100": {CoreNumber: 427}},
			map[int][]string{427: {"A"}},
		)
		scheduled, err := engine.Schedule(schedStart, nil)
		require.NoError(t, err)
		require.Len(t, scheduled, 1)
		return scheduled[0]
	}

	assert.True(t, run(at(mon, 1, 0, 0)).OnTime, "finishes within Monday")
	assert.False(t, run(at(mon, 0, 8, 0)).OnTime, "cannot finish by 08:00")
}

func TestScheduleFourVsFiveDayWeek(t *testing.T) {
	run := func(days []time.Weekday) time.Time {
		engine, err := New(
			[]*Order{{WONumber: "WO-1", PartNumber: "STR-100"}},
			map[string]*ProcessRecord{"STR-100": {CoreNumber: 427}},
			map[int][]string{427: {"A"}},
			NewCalendarConfig(days, 12, nil, 0),
		)
		require.NoError(t, err)
		// Friday noon: working time only on the five-day calendar.
		scheduled, err := engine.Schedule(at(mon, 4, 12, 0), nil)
		require.NoError(t, err)
		require.Len(t, scheduled, 1)
		return scheduled[0].CompletionDate
	}

	fourDay := run(nil)
	fiveDay := run([]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday})

	assert.True(t, fiveDay.Before(fourDay), "a live Friday finishes days earlier")
	assert.Equal(t, time.Friday, fiveDay.Weekday())
	assert.Equal(t, time.Monday, fourDay.Weekday())
}

func TestScheduleDeterministicRepeatRuns(t *testing.T) {
	build := func() *Simulator {
		return newTestSim(t,
			[]*Order{
				{WONumber: "WO-1", PartNumber: "STR-100", CreatedOn: tp(at(mon, -5, 0, 0))},
				{WONumber: "WO-2", PartNumber: "STR-200", CreatedOn: tp(at(mon, -4, 0, 0))},
				{WONumber: "WO-3", PartNumber: "XN-300", IsReline: true, CreatedOn: tp(at(mon, -3, 0, 0))},
			},
			map[string]*ProcessRecord{
				"STR-100": {CoreNumber: 1, RubberType: "HR"},
				"STR-200": {CoreNumber: 2, RubberType: "XE"},
				"XN-300":  {CoreNumber: 1, RubberType: "XR"},
			},
			map[int][]string{1: {"A", "B"}, 2: {"A"}},
		)
	}
	hot := []HotListEntry{{WONumber: "WO-2", IsASAP: true}}

	first, err := build().Schedule(schedStart, hot)
	require.NoError(t, err)
	second, err := build().Schedule(schedStart, hot)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSummary(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-1", PartNumber: "STR-100", CreatedOn: tp(at(mon, -10, 0, 0))},
			{WONumber: "WO-2", PartNumber: "XN-200", IsReline: true, CreatedOn: tp(at(mon, -6, 0, 0))},
			{WONumber: "WO-PENDING", PartNumber: "STR-UNKNOWN"},
		},
		map[string]*ProcessRecord{
			"STR-100": {CoreNumber: 427},
			"XN-200":  {CoreNumber: 428},
		},
		map[int][]string{427: {"A"}, 428: {"A"}},
	)

	_, err := engine.Schedule(schedStart, nil)
	require.NoError(t, err)

	sum := engine.Summary()
	assert.Equal(t, 2, sum.TotalScheduled)
	assert.Equal(t, 2, sum.OnTime)
	assert.Equal(t, 100.0, sum.OnTimePct)
	assert.Equal(t, 1, sum.RelineCount)
	assert.Equal(t, 50.0, sum.RelinePct)
	assert.Equal(t, 1, sum.PendingCore)
	assert.Zero(t, sum.HotListShortages)

	require.NotNil(t, sum.AvgTurnaroundDays)
	assert.Greater(t, *sum.AvgTurnaroundDays, 0.0)
	require.NotNil(t, sum.EarliestCompletion)
	require.NotNil(t, sum.LatestCompletion)
	assert.False(t, sum.LatestCompletion.Before(*sum.EarliestCompletion))
	require.NotNil(t, sum.AvgPipelineHours)
	assert.Greater(t, *sum.AvgPipelineHours, 0.0)
}

func TestValidateInputs(t *testing.T) {
	engine := newTestSim(t,
		[]*Order{
			{WONumber: "WO-OK", PartNumber: "STR-100"},
			{WONumber: "WO-BAD", PartNumber: "STR-MISSING"},
		},
		map[string]*ProcessRecord{"STR-100": {CoreNumber: 427}},
		map[int][]string{427: {"A"}},
	)

	pending := engine.ValidateInputs()
	require.Len(t, pending, 1)
	assert.Equal(t, "WO-BAD", pending[0].Order.WONumber)
}
