package dto

// VWAPResponse represents the JSON structure returned by GET /api/v1/vwap.
//
// Fields match the API contract and may differ from internal domain models.
type VWAPResponse struct {
	Ticker         string  `json:"ticker" example:"LKOH"`
	Board          string  `json:"board" example:"TQBR"`
	VWAP           float64 `json:"vwap" example:"6543.21"`
	TotalQuantity  int64   `json:"total_quantity" example:"1200"`
	Trades         int     `json:"trades" example:"57"`
	FirstTradeTime string  `json:"first_trade_time" example:"10:00:00"`
	LastTradeTime  string  `json:"last_trade_time" example:"18:39:59"`
	Summary        string  `json:"summary" example:"LKOH 6543.21@1200 (10:00:00 - 18:39:59)"`
}

// CompletionResponse represents the JSON structure returned by GET /api/v1/vwapt.
type CompletionResponse struct {
	VWAPResponse
	Target         int64   `json:"target" example:"100000"`
	Percent        float64 `json:"percent" example:"10"`
	Reached        bool    `json:"reached" example:"true"`
	CompletionTime string  `json:"completion_time,omitempty" example:"12:41:07"`
}

// BatchResponse wraps the per-ticker results of GET /api/v1/vwap/batch.
// Tickers without data in the range are listed in Missing.
type BatchResponse struct {
	Results []VWAPResponse `json:"results"`
	Missing []string       `json:"missing"`
}
