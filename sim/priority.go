package sim

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Priority tiers, in admission order. Hot-list orders outrank
// everything; CAVO, a designated low-priority customer, is always last.
const (
	PriorityHotASAP  = "Hot-ASAP"
	PriorityHotDated = "Hot-Dated"
	PriorityRework   = "Rework"
	PriorityNormal   = "Normal"
	PriorityCAVO     = "CAVO"
)

// cavoCustomerMarker identifies the low-priority customer by name match.
const cavoCustomerMarker = "CAVO DRILLING MOTORS"

// orderInfo carries an order together with its resolved core number and
// process-map record through ranking and admission.
type orderInfo struct {
	Order      *Order
	CoreNumber int
	Record     *ProcessRecord
}

// rankOrders classifies schedulable orders into the five priority tiers
// and returns their concatenation in tier order. Membership precedence:
// hot-list entry wins over everything, then the rework flag, then the
// CAVO customer match; everything else is Normal. Hot-list special
// instructions are propagated onto the order, and each order is stamped
// with its tier.
func rankOrders(infos []*orderInfo, hot map[string]HotListEntry) []*orderInfo {
	var hotASAP, hotDated, rework, normal, cavo []*orderInfo

	for _, info := range infos {
		order := info.Order
		entry, onHotList := hot[order.WONumber]

		switch {
		case onHotList:
			if entry.SpecialInstructions != "" {
				order.SpecialInstructions = entry.SpecialInstructions
			}
			if entry.IsASAP {
				order.Priority = PriorityHotASAP
				hotASAP = append(hotASAP, info)
			} else {
				order.Priority = PriorityHotDated
				hotDated = append(hotDated, info)
			}
		case order.IsRework:
			order.Priority = PriorityRework
			rework = append(rework, info)
		case strings.Contains(strings.ToUpper(order.Customer), cavoCustomerMarker):
			order.Priority = PriorityCAVO
			cavo = append(cavo, info)
		default:
			order.Priority = PriorityNormal
			normal = append(normal, info)
		}
	}

	sortHotASAP(hotASAP, hot)
	sortHotDated(hotDated, hot)
	sortByCreation(rework)
	sortByCreation(normal)
	sortByCreation(cavo)

	ranked := make([]*orderInfo, 0, len(infos))
	ranked = append(ranked, hotASAP...)
	ranked = append(ranked, hotDated...)
	ranked = append(ranked, rework...)
	ranked = append(ranked, normal...)
	ranked = append(ranked, cavo...)
	return ranked
}

// unixOrInf converts an optional timestamp to a sortable scalar; missing
// dates sort after every real one.
func unixOrInf(t *time.Time) float64 {
	if t == nil {
		return math.Inf(1)
	}
	return float64(t.UnixNano())
}

// sortHotASAP orders the ASAP tier by request-made date, then the hot
// list's own row position.
func sortHotASAP(infos []*orderInfo, hot map[string]HotListEntry) {
	sort.SliceStable(infos, func(i, j int) bool {
		a := hot[infos[i].Order.WONumber]
		b := hot[infos[j].Order.WONumber]
		if ka, kb := unixOrInf(a.DateReqMade), unixOrInf(b.DateReqMade); ka != kb {
			return ka < kb
		}
		return a.RowPosition < b.RowPosition
	})
}

// sortHotDated orders the dated tier by need-by date, then request-made
// date, then row position.
func sortHotDated(infos []*orderInfo, hot map[string]HotListEntry) {
	sort.SliceStable(infos, func(i, j int) bool {
		a := hot[infos[i].Order.WONumber]
		b := hot[infos[j].Order.WONumber]
		if ka, kb := unixOrInf(a.NeedByDate), unixOrInf(b.NeedByDate); ka != kb {
			return ka < kb
		}
		if ka, kb := unixOrInf(a.DateReqMade), unixOrInf(b.DateReqMade); ka != kb {
			return ka < kb
		}
		return a.RowPosition < b.RowPosition
	})
}

// sortByCreation is the FIFO order for the rework, normal, and CAVO
// tiers; orders with no creation date go last.
func sortByCreation(infos []*orderInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		return unixOrInf(infos[i].Order.CreatedOn) < unixOrInf(infos[j].Order.CreatedOn)
	})
}
