package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents one executed transaction on an ISS board.
//
// Field mapping (ISS "trades" block → model):
//   - TRADENO  → TradeNo (strictly increasing per symbol/board, pagination cursor)
//   - TRADETIME → TradeTime (clock only, "15:04:05")
//   - PRICE    → Price
//   - QUANTITY → Quantity (lots or shares, feed-defined)
//   - VALUE, BUYSELL, DECIMALS, BOARDID, SECID → optional, feed-dependent
type Trade struct {
	TradeNo   int64
	TradeTime time.Time
	Price     decimal.Decimal
	Quantity  int64
	Value     decimal.Decimal
	BuySell   string
	Decimals  int
	BoardID   string
	SecID     string
}

// Tape is the ordered trade history for one symbol/board, ascending by TradeNo.
//
// A Tape handed out by the ingestion layer is a shared view: callers must not mutate it.
type Tape []Trade

// LastTradeNo returns the TradeNo of the last trade, or 0 for an empty tape.
func (t Tape) LastTradeNo() int64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].TradeNo
}

const (
	clockLayout      = "15:04:05"
	clockShortLayout = "15:04"
)

// ParseClock parses a time of day in "HH:MM" or "HH:MM:SS" form into a clock value
// comparable with Trade.TradeTime.
func ParseClock(s string) (time.Time, error) {
	for _, layout := range []string{clockLayout, clockShortLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", s)
}

// Clock builds a clock value on the zero date, in UTC.
func Clock(hour, min, sec int) time.Time {
	return time.Date(0, 1, 1, hour, min, sec, 0, time.UTC)
}

// FormatClock renders a clock value as "HH:MM:SS".
func FormatClock(t time.Time) string {
	return t.Format(clockLayout)
}
