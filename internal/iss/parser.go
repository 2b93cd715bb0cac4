package iss

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/guttosm/issvwap/internal/domain/models"
)

// tradesBlock is the key carrying trade rows in the extended JSON envelope.
const tradesBlock = "trades"

// decodeTrades parses an iss.json=extended body:
//
//	[{"charsetinfo": {...}}, {"trades": [{"TRADENO": 1, "TRADETIME": "10:00:00", ...}]}]
//
// A body without a "trades" block is malformed. An empty "trades" array is a valid empty page.
func decodeTrades(r io.Reader) ([]models.Trade, error) {
	var blocks []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&blocks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var raw json.RawMessage
	for _, b := range blocks {
		if v, ok := b[tradesBlock]; ok {
			raw = v
			break
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: no %q block in response", ErrDecode, tradesBlock)
	}

	var rows []tradeRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	trades := make([]models.Trade, 0, len(rows))
	for i, row := range rows {
		tr, err := rowToTrade(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrDecode, i, err)
		}
		trades = append(trades, tr)
	}
	return trades, nil
}

// rowToTrade converts one feed row. TRADENO and TRADETIME are mandatory;
// PRICE and QUANTITY are taken as sent (the feed owns their correctness).
func rowToTrade(row tradeRow) (models.Trade, error) {
	if row.TradeNo <= 0 {
		return models.Trade{}, fmt.Errorf("invalid TRADENO %d", row.TradeNo)
	}
	clock, err := models.ParseClock(row.TradeTime)
	if err != nil {
		return models.Trade{}, fmt.Errorf("invalid TRADETIME: %v", err)
	}
	decimals := row.Decimals
	if decimals <= 0 {
		decimals = models.DefaultDecimals
	}
	return models.Trade{
		TradeNo:   row.TradeNo,
		TradeTime: clock,
		Price:     row.Price,
		Quantity:  row.Quantity,
		Value:     row.Value,
		BuySell:   row.BuySell,
		Decimals:  decimals,
		BoardID:   row.BoardID,
		SecID:     row.SecID,
	}, nil
}
