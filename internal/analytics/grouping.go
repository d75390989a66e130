package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tradeJournal/internal/domain"
)

// ErrUnknownGrouping is returned by ParseGrouping for an unsupported name.
var ErrUnknownGrouping = errors.New("unknown grouping")

// Ordering selects how group breakdowns are sorted.
type Ordering int

const (
	// OrderByProfit sorts by descending total profit, ties by ascending key.
	OrderByProfit Ordering = iota
	// OrderChronological sorts calendar keys ascending.
	OrderChronological
)

// Grouping partitions trades by a derived key.
type Grouping struct {
	Name  string
	Key   func(domain.Trade) string
	Order Ordering
}

// GroupBreakdown is the summary of one partition.
type GroupBreakdown struct {
	Key     string            `json:"key"`
	Summary SummaryStatistics `json:"summary"`
}

var (
	BySymbol = Grouping{
		Name:  "symbol",
		Key:   func(t domain.Trade) string { return domain.NormalizeSymbol(t.Symbol) },
		Order: OrderByProfit,
	}
	// ByStrategy keeps trades without a strategy in their own "" bucket.
	ByStrategy = Grouping{
		Name:  "strategy",
		Key:   func(t domain.Trade) string { return strings.TrimSpace(t.Strategy) },
		Order: OrderByProfit,
	}
	BySide = Grouping{
		Name:  "side",
		Key:   func(t domain.Trade) string { return string(t.Side) },
		Order: OrderByProfit,
	}
)

// ByDay buckets trades by entry date as YYYY-MM-DD in loc (UTC when nil).
func ByDay(loc *time.Location) Grouping {
	return calendarGrouping("day", "2006-01-02", loc)
}

// ByMonth buckets trades by entry date as YYYY-MM in loc (UTC when nil).
func ByMonth(loc *time.Location) Grouping {
	return calendarGrouping("month", "2006-01", loc)
}

// ByYear buckets trades by entry date as YYYY in loc (UTC when nil).
func ByYear(loc *time.Location) Grouping {
	return calendarGrouping("year", "2006", loc)
}

func calendarGrouping(name, layout string, loc *time.Location) Grouping {
	if loc == nil {
		loc = time.UTC
	}
	return Grouping{
		Name:  name,
		Key:   func(t domain.Trade) string { return t.EntryDate.In(loc).Format(layout) },
		Order: OrderChronological,
	}
}

// ParseGrouping resolves a grouping by name: symbol, strategy, side, day, month or year.
func ParseGrouping(name string, loc *time.Location) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "symbol":
		return BySymbol, nil
	case "strategy":
		return ByStrategy, nil
	case "side":
		return BySide, nil
	case "day":
		return ByDay(loc), nil
	case "month":
		return ByMonth(loc), nil
	case "year":
		return ByYear(loc), nil
	}
	return Grouping{}, fmt.Errorf("%w: %q", ErrUnknownGrouping, name)
}

// GroupBy partitions trades with g and summarizes each partition
// independently. topN > 0 keeps only the first topN groups after sorting.
func GroupBy(trades []domain.Trade, autoCalculateProfit bool, g Grouping, topN int) []GroupBreakdown {
	buckets := make(map[string][]NormalizedTrade)
	for _, it := range Normalize(trades, autoCalculateProfit) {
		key := g.Key(it.Trade)
		buckets[key] = append(buckets[key], it)
	}

	out := make([]GroupBreakdown, 0, len(buckets))
	for key, items := range buckets {
		out = append(out, GroupBreakdown{Key: key, Summary: summarize(items)})
	}

	switch g.Order {
	case OrderChronological:
		sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	default:
		sort.Slice(out, func(i, j int) bool {
			if c := out[i].Summary.TotalProfit.Cmp(out[j].Summary.TotalProfit); c != 0 {
				return c > 0
			}
			return out[i].Key < out[j].Key
		})
	}

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// TopTrades returns up to n closed trades ranked by profit: the biggest
// winners (profit > 0, descending) or the biggest losers (profit < 0,
// ascending). Ties are broken by trade ID. n <= 0 returns every match.
func TopTrades(trades []domain.Trade, autoCalculateProfit bool, n int, winners bool) []NormalizedTrade {
	out := make([]NormalizedTrade, 0)
	for _, it := range Normalize(trades, autoCalculateProfit) {
		if it.Trade.Status != domain.StatusClosed {
			continue
		}
		sign := it.Metrics.Profit.Sign()
		if (winners && sign > 0) || (!winners && sign < 0) {
			out = append(out, it)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		c := out[i].Metrics.Profit.Cmp(out[j].Metrics.Profit)
		if c == 0 {
			return out[i].Trade.ID < out[j].Trade.ID
		}
		if winners {
			return c > 0
		}
		return c < 0
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
