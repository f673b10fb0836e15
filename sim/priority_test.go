package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tp(t time.Time) *time.Time { return &t }

func info(wo string, mutate func(*Order)) *orderInfo {
	o := &Order{WONumber: wo, PartNumber: "P-" + wo}
	if mutate != nil {
		mutate(o)
	}
	return &orderInfo{Order: o, CoreNumber: 427}
}

func wonumbers(infos []*orderInfo) []string {
	out := make([]string, len(infos))
	for i, in := range infos {
		out[i] = in.Order.WONumber
	}
	return out
}

func TestRankOrdersTierPrecedence(t *testing.T) {
	created := at(mon, -7, 8, 0)
	infos := []*orderInfo{
		info("WO-CAVO", func(o *Order) { o.Customer = "Cavo Drilling Motors LLC"; o.CreatedOn = tp(created) }),
		info("WO-NORMAL", func(o *Order) { o.Customer = "Acme"; o.CreatedOn = tp(created) }),
		info("WO-REWORK", func(o *Order) { o.IsRework = true; o.CreatedOn = tp(created) }),
		info("WO-HOT-DATED", func(o *Order) { o.CreatedOn = tp(created) }),
		info("WO-HOT-ASAP", func(o *Order) { o.CreatedOn = tp(created) }),
		// Hot list beats the rework flag and the CAVO customer match.
		info("WO-HOT-REWORK", func(o *Order) { o.IsRework = true }),
	}
	hot := map[string]HotListEntry{
		"WO-HOT-ASAP":   {WONumber: "WO-HOT-ASAP", IsASAP: true, RowPosition: 0},
		"WO-HOT-DATED":  {WONumber: "WO-HOT-DATED", NeedByDate: tp(at(mon, 10, 0, 0)), RowPosition: 1},
		"WO-HOT-REWORK": {WONumber: "WO-HOT-REWORK", IsASAP: true, RowPosition: 2},
	}

	ranked := rankOrders(infos, hot)
	assert.Equal(t, []string{
		"WO-HOT-ASAP", "WO-HOT-REWORK", "WO-HOT-DATED",
		"WO-REWORK", "WO-NORMAL", "WO-CAVO",
	}, wonumbers(ranked))

	byWO := map[string]string{}
	for _, in := range ranked {
		byWO[in.Order.WONumber] = in.Order.Priority
	}
	assert.Equal(t, PriorityHotASAP, byWO["WO-HOT-ASAP"])
	assert.Equal(t, PriorityHotASAP, byWO["WO-HOT-REWORK"])
	assert.Equal(t, PriorityHotDated, byWO["WO-HOT-DATED"])
	assert.Equal(t, PriorityRework, byWO["WO-REWORK"])
	assert.Equal(t, PriorityNormal, byWO["WO-NORMAL"])
	assert.Equal(t, PriorityCAVO, byWO["WO-CAVO"])
}

func TestRankOrdersHotASAPSortKeys(t *testing.T) {
	infos := []*orderInfo{info("A", nil), info("B", nil), info("C", nil)}
	hot := map[string]HotListEntry{
		// C requested earliest; A and B tie on request date, row breaks it.
		"A": {WONumber: "A", IsASAP: true, DateReqMade: tp(at(mon, -2, 0, 0)), RowPosition: 5},
		"B": {WONumber: "B", IsASAP: true, DateReqMade: tp(at(mon, -2, 0, 0)), RowPosition: 1},
		"C": {WONumber: "C", IsASAP: true, DateReqMade: tp(at(mon, -4, 0, 0)), RowPosition: 9},
	}

	ranked := rankOrders(infos, hot)
	assert.Equal(t, []string{"C", "B", "A"}, wonumbers(ranked))
}

func TestRankOrdersHotDatedSortKeys(t *testing.T) {
	infos := []*orderInfo{info("A", nil), info("B", nil), info("C", nil), info("D", nil)}
	hot := map[string]HotListEntry{
		"A": {WONumber: "A", NeedByDate: tp(at(mon, 14, 0, 0)), RowPosition: 0},
		"B": {WONumber: "B", NeedByDate: tp(at(mon, 7, 0, 0)), RowPosition: 1},
		// C has no need-by date: it sorts after every dated entry.
		"C": {WONumber: "C", RowPosition: 2},
		"D": {WONumber: "D", NeedByDate: tp(at(mon, 7, 0, 0)), DateReqMade: tp(at(mon, -1, 0, 0)), RowPosition: 3},
	}

	ranked := rankOrders(infos, hot)
	// B and D share a need-by date; D has a request date, B does not, so D
	// sorts first within the tie.
	assert.Equal(t, []string{"D", "B", "A", "C"}, wonumbers(ranked))
}

func TestRankOrdersNormalTierIsFIFO(t *testing.T) {
	infos := []*orderInfo{
		info("LATE", func(o *Order) { o.CreatedOn = tp(at(mon, -1, 0, 0)) }),
		info("NODATE", nil),
		info("EARLY", func(o *Order) { o.CreatedOn = tp(at(mon, -9, 0, 0)) }),
	}

	ranked := rankOrders(infos, nil)
	assert.Equal(t, []string{"EARLY", "LATE", "NODATE"}, wonumbers(ranked))
}

func TestRankOrdersPropagatesHotInstructions(t *testing.T) {
	infos := []*orderInfo{
		info("A", func(o *Order) { o.SpecialInstructions = "original note" }),
		info("B", func(o *Order) { o.SpecialInstructions = "keep me" }),
	}
	hot := map[string]HotListEntry{
		"A": {WONumber: "A", IsASAP: true, SpecialInstructions: "expedite per customer"},
		"B": {WONumber: "B", IsASAP: true},
	}

	ranked := rankOrders(infos, hot)
	require.Len(t, ranked, 2)
	assert.Equal(t, "expedite per customer", infos[0].Order.SpecialInstructions)
	assert.Equal(t, "keep me", infos[1].Order.SpecialInstructions, "empty override does not clobber")
}
