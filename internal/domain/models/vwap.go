package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is used to render prices when the feed gives no precision hint.
const DefaultDecimals = 2

// VWAP is the result of aggregating a filtered slice of a tape.
//
// Fields:
//   - Price: Σ(price·quantity) / Σ(quantity) over the filtered trades.
//   - TotalQuantity: Σ(quantity).
//   - Trades: number of trades that contributed.
//   - FirstTradeTime / LastTradeTime: clock of the first and last contributing trade.
//   - Decimals: price precision hint taken from the feed.
type VWAP struct {
	Symbol         string
	Board          string
	Price          decimal.Decimal
	TotalQuantity  int64
	Trades         int
	FirstTradeTime time.Time
	LastTradeTime  time.Time
	Decimals       int
}

// Summary renders the one-line text form, e.g. "LKOH 6543.21@1200 (10:00:00 - 18:39:59)".
func (v VWAP) Summary() string {
	return fmt.Sprintf("%s %s@%d (%s - %s)",
		v.Symbol,
		v.Price.StringFixed(int32(v.Decimals)),
		v.TotalQuantity,
		FormatClock(v.FirstTradeTime),
		FormatClock(v.LastTradeTime),
	)
}

// Completion answers "when does a participation of Percent% reach Target quantity,
// starting from the first trade at or after begin".
//
// LastTradeTime of the embedded VWAP is the completion time when Reached is true.
type Completion struct {
	VWAP
	Target  int64
	Percent decimal.Decimal
	Reached bool
}
