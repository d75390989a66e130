package analytics

import "tradeJournal/internal/domain"

// Filter narrows a trade listing or report. Zero-valued fields match
// everything. Storage adapters apply it in their queries.
type Filter struct {
	Symbol   string // compared after NormalizeSymbol
	Strategy string // case-insensitive, surrounding spaces ignored
	Side     domain.Side
	Status   domain.TradeStatus
	Window   *Window // on entry date
	Limit    int     // maximum number of trades, 0 for all; listings only
}
