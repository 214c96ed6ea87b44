package forecast

import (
	"sort"
	"time"
)

// =============================================================================
// PRESENTATION REDUCERS - Calendar-month bucketing for display
// =============================================================================

// MonthlySummary aggregates one calendar month of a ledger. EndBalance is
// the last item's running balance in the month; consumers treat it as
// authoritative and never re-derive balances.
type MonthlySummary struct {
	Year  int
	Month time.Month

	Inflow     Money
	Outflow    Money // positive magnitude
	Net        Money
	EndBalance Money
	Items      int
}

// MonthlySummaries buckets a sorted ledger into calendar months. Balance and
// marker items don't count toward flows but still advance EndBalance.
func MonthlySummaries(items []Item) []MonthlySummary {
	type monthKey struct {
		year  int
		month time.Month
	}

	buckets := make(map[monthKey]*MonthlySummary)
	var order []monthKey

	for _, it := range items {
		k := monthKey{year: it.Date.Year(), month: it.Date.Month()}
		s, ok := buckets[k]
		if !ok {
			s = &MonthlySummary{Year: k.year, Month: k.month, Inflow: ZeroMoney(), Outflow: ZeroMoney(), Net: ZeroMoney()}
			buckets[k] = s
			order = append(order, k)
		}

		switch it.Kind {
		case KindBalance, KindMarker:
			// flow-neutral
		default:
			if it.Amount.IsNegative() {
				s.Outflow = s.Outflow.Add(it.Amount.Neg())
			} else {
				s.Inflow = s.Inflow.Add(it.Amount)
			}
			s.Net = s.Net.Add(it.Amount)
			s.Items++
		}
		s.EndBalance = it.RunningBalance
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].year != order[j].year {
			return order[i].year < order[j].year
		}
		return order[i].month < order[j].month
	})

	out := make([]MonthlySummary, 0, len(order))
	for _, k := range order {
		out = append(out, *buckets[k])
	}
	return out
}
