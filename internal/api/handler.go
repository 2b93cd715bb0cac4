package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/guttosm/issvwap/internal/domain/dto"
	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/middleware"
	"github.com/guttosm/issvwap/internal/service"
)

// AdminTokenHeader carries the token required by POST /api/v1/vwap/reset when one is configured.
const AdminTokenHeader = "X-Admin-Token"

// maxBatchTickers bounds GET /api/v1/vwap/batch.
const maxBatchTickers = 20

// Handler provides HTTP handlers for the VWAP endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Call the VWAP service, which refreshes tapes from the ISS feed
//   - Translate results into response DTOs
//   - Map domain errors to HTTP status codes
type Handler struct {
	svc        service.VWAPService
	adminToken string
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.VWAPService): business logic for VWAP queries.
//   - adminToken (string): when non-empty, required in X-Admin-Token to reset tapes.
func NewHandler(svc service.VWAPService, adminToken string) *Handler {
	return &Handler{svc: svc, adminToken: adminToken}
}

// GetVWAP godoc
// @Summary      Get VWAP by ticker
// @Description  Refreshes the trade tape of the ticker and returns the VWAP of the trades in [begin, end)
// @Tags         vwap
// @Produce      json
// @Param        ticker  query     string  true   "Security code" example(LKOH)
// @Param        board   query     string  false  "Board id, defaults to TQBR" example(TQBR)
// @Param        begin   query     string  false  "Inclusive lower bound, HH:MM[:SS]" example(10:00)
// @Param        end     query     string  false  "Exclusive upper bound, HH:MM[:SS]" example(12:00)
// @Success      200     {object}  dto.VWAPResponse   "Success"
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse  "No data"
// @Failure      502     {object}  dto.ErrorResponse  "Trade feed unavailable"
// @Router       /api/v1/vwap [get]
func (h *Handler) GetVWAP(c *gin.Context) {
	begin, end, ok := parseWindow(c)
	if !ok {
		return
	}

	v, err := h.svc.GetVWAP(c.Request.Context(), service.VWAPQuery{
		Ticker: c.Query("ticker"),
		Board:  c.Query("board"),
		Begin:  begin,
		End:    end,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toVWAPResponse(v))
}

// GetVWAPBatch godoc
// @Summary      Get VWAP for several tickers
// @Description  Refreshes the tapes in parallel; tickers without trades in the window are listed in missing
// @Tags         vwap
// @Produce      json
// @Param        tickers  query     string  true   "Comma-separated security codes" example(LKOH,SBER)
// @Param        board    query     string  false  "Board id, defaults to TQBR" example(TQBR)
// @Param        begin    query     string  false  "Inclusive lower bound, HH:MM[:SS]" example(10:00)
// @Param        end      query     string  false  "Exclusive upper bound, HH:MM[:SS]" example(12:00)
// @Success      200      {object}  dto.BatchResponse  "Success"
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Failure      502      {object}  dto.ErrorResponse  "Trade feed unavailable"
// @Router       /api/v1/vwap/batch [get]
func (h *Handler) GetVWAPBatch(c *gin.Context) {
	var tickers []string
	for _, t := range strings.Split(c.Query("tickers"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		middleware.AbortWithError(c, http.StatusBadRequest, "tickers is required", nil)
		return
	}
	if len(tickers) > maxBatchTickers {
		middleware.AbortWithError(c, http.StatusBadRequest, "too many tickers", errors.New("at most "+strconv.Itoa(maxBatchTickers)+" tickers per request"))
		return
	}
	begin, end, ok := parseWindow(c)
	if !ok {
		return
	}

	res, err := h.svc.GetVWAPBatch(c.Request.Context(), tickers, c.Query("board"), begin, end)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := dto.BatchResponse{Results: make([]dto.VWAPResponse, 0, len(res.Results)), Missing: res.Missing}
	for _, v := range res.Results {
		out.Results = append(out.Results, toVWAPResponse(v))
	}
	c.JSON(http.StatusOK, out)
}

// GetCompletion godoc
// @Summary      Get volume-target completion
// @Description  Walks the trades from begin until percent% of the cumulative volume reaches target; the crossing trade is included
// @Tags         vwap
// @Produce      json
// @Param        ticker   query     string  true   "Security code" example(LKOH)
// @Param        board    query     string  false  "Board id, defaults to TQBR" example(TQBR)
// @Param        begin    query     string  true   "Start time, HH:MM[:SS]" example(10:00)
// @Param        target   query     int     true   "Target quantity" example(100000)
// @Param        percent  query     number  false  "Participation percent in (0, 100], default 100" example(10)
// @Success      200      {object}  dto.CompletionResponse  "Success"
// @Failure      400      {object}  dto.ErrorResponse       "Bad Request"
// @Failure      404      {object}  dto.ErrorResponse       "No data"
// @Failure      502      {object}  dto.ErrorResponse       "Trade feed unavailable"
// @Router       /api/v1/vwapt [get]
func (h *Handler) GetCompletion(c *gin.Context) {
	begin, _, ok := parseWindow(c)
	if !ok {
		return
	}

	q := service.CompletionQuery{Ticker: c.Query("ticker"), Board: c.Query("board"), Begin: begin}
	if s := c.Query("target"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid target, expected an integer quantity", err)
			return
		}
		q.Target = n
	}
	if s := c.Query("percent"); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid percent", err)
			return
		}
		q.Percent = &p
	}

	comp, err := h.svc.GetCompletion(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := dto.CompletionResponse{
		VWAPResponse: toVWAPResponse(&comp.VWAP),
		Target:       comp.Target,
		Percent:      comp.Percent.InexactFloat64(),
		Reached:      comp.Reached,
	}
	if comp.Reached {
		resp.CompletionTime = models.FormatClock(comp.LastTradeTime)
	}
	c.JSON(http.StatusOK, resp)
}

// Reset godoc
// @Summary      Reset all trade tapes
// @Description  Drops every cached tape; the next query refetches from the session start
// @Tags         vwap
// @Produce      json
// @Param        X-Admin-Token  header    string  false  "Admin token, required when ADMIN_TOKEN is configured"
// @Success      200            {object}  map[string]string
// @Failure      401            {object}  dto.ErrorResponse  "Unauthorized"
// @Router       /api/v1/vwap/reset [post]
func (h *Handler) Reset(c *gin.Context) {
	if h.adminToken != "" {
		got := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
			middleware.AbortWithError(c, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
	}
	if err := h.svc.Reset(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "done"})
}

// parseWindow reads the optional begin/end query params. It aborts with 400 on malformed input.
func parseWindow(c *gin.Context) (begin, end *time.Time, ok bool) {
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"begin", &begin}, {"end", &end}} {
		s := c.Query(p.name)
		if s == "" {
			continue
		}
		t, err := models.ParseClock(s)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid "+p.name+" time", err)
			return nil, nil, false
		}
		*p.dst = &t
	}
	return begin, end, true
}

// fail maps service errors to HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, service.ErrNoDataForRange):
		middleware.AbortWithError(c, http.StatusNotFound, "no data for range", nil)
	case errors.Is(err, service.ErrNoData):
		middleware.AbortWithError(c, http.StatusNotFound, "no data found", nil)
	case errors.Is(err, context.DeadlineExceeded):
		middleware.AbortWithError(c, http.StatusGatewayTimeout, "trade feed timed out", err)
	case errors.Is(err, service.ErrUpstream):
		middleware.AbortWithError(c, http.StatusBadGateway, "failed to fetch trades", err)
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to compute vwap", err)
	}
}

func toVWAPResponse(v *models.VWAP) dto.VWAPResponse {
	return dto.VWAPResponse{
		Ticker:         v.Symbol,
		Board:          v.Board,
		VWAP:           v.Price.Round(int32(v.Decimals)).InexactFloat64(),
		TotalQuantity:  v.TotalQuantity,
		Trades:         v.Trades,
		FirstTradeTime: models.FormatClock(v.FirstTradeTime),
		LastTradeTime:  models.FormatClock(v.LastTradeTime),
		Summary:        v.Summary(),
	}
}
