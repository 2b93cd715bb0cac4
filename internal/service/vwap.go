package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/issvwap/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeVWAP aggregates the trades of tape whose clock falls in [begin, end).
// A nil bound leaves that side of the window open. An empty tape is ErrNoData whatever the window.
func ComputeVWAP(symbol, board string, tape models.Tape, begin, end *time.Time) (*models.VWAP, error) {
	if len(tape) == 0 {
		return nil, ErrNoData
	}
	if begin != nil && end != nil && !begin.Before(*end) {
		return nil, invalid("range", "begin must be before end")
	}

	rows := window(tape, begin, end)
	if len(rows) == 0 {
		return nil, ErrNoDataForRange
	}
	v, ok := aggregate(symbol, board, rows)
	if !ok {
		return nil, ErrNoDataForRange
	}
	return &v, nil
}

// ComputeCompletion walks the trades from begin onwards and stops at the first trade where
// cumulative quantity scaled by percent reaches target. That trade is included.
// If the threshold is never reached every trade after begin is aggregated and Reached is false.
//
// percent defaults to 100 and must lie in (0, 100].
func ComputeCompletion(symbol, board string, tape models.Tape, begin *time.Time, target int64, percent *decimal.Decimal) (*models.Completion, error) {
	pct, err := completionParams(begin, target, percent)
	if err != nil {
		return nil, err
	}
	if len(tape) == 0 {
		return nil, ErrNoData
	}

	rows := window(tape, begin, nil)
	if len(rows) == 0 {
		return nil, ErrNoDataForRange
	}

	// cum * pct / 100 >= target, kept in integers scaled by 100
	threshold := decimal.NewFromInt(target).Mul(hundred)
	var cum int64
	cut, reached := len(rows), false
	for i, tr := range rows {
		cum += tr.Quantity
		if decimal.NewFromInt(cum).Mul(pct).GreaterThanOrEqual(threshold) {
			cut, reached = i+1, true
			break
		}
	}

	v, ok := aggregate(symbol, board, rows[:cut])
	if !ok {
		return nil, ErrNoDataForRange
	}
	return &models.Completion{VWAP: v, Target: target, Percent: pct, Reached: reached}, nil
}

// completionParams validates completion arguments and resolves the default percent.
func completionParams(begin *time.Time, target int64, percent *decimal.Decimal) (decimal.Decimal, error) {
	if begin == nil {
		return decimal.Decimal{}, invalid("begin", "begin time is required")
	}
	if target <= 0 {
		return decimal.Decimal{}, invalid("target", "target quantity must be positive")
	}
	pct := hundred
	if percent != nil {
		pct = *percent
	}
	if !pct.IsPositive() || pct.GreaterThan(hundred) {
		return decimal.Decimal{}, invalid("percent", "must be in (0, 100]")
	}
	return pct, nil
}

// window returns the trades with begin <= TradeTime < end.
func window(tape models.Tape, begin, end *time.Time) []models.Trade {
	out := make([]models.Trade, 0, len(tape))
	for _, tr := range tape {
		if begin != nil && tr.TradeTime.Before(*begin) {
			continue
		}
		if end != nil && !tr.TradeTime.Before(*end) {
			continue
		}
		out = append(out, tr)
	}
	return out
}

// aggregate computes Σ(p·q)/Σq. ok is false when the rows carry no quantity.
func aggregate(symbol, board string, rows []models.Trade) (models.VWAP, bool) {
	var (
		notional decimal.Decimal
		qty      int64
		decimals int
	)
	for _, tr := range rows {
		notional = notional.Add(tr.Price.Mul(decimal.NewFromInt(tr.Quantity)))
		qty += tr.Quantity
		if tr.Decimals > decimals {
			decimals = tr.Decimals
		}
	}
	if qty <= 0 {
		return models.VWAP{}, false
	}
	if decimals <= 0 {
		decimals = models.DefaultDecimals
	}

	return models.VWAP{
		Symbol:         symbol,
		Board:          board,
		Price:          notional.Div(decimal.NewFromInt(qty)),
		TotalQuantity:  qty,
		Trades:         len(rows),
		FirstTradeTime: rows[0].TradeTime,
		LastTradeTime:  rows[len(rows)-1].TradeTime,
		Decimals:       decimals,
	}, true
}
