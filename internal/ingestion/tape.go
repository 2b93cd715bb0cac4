package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/iss"
	"github.com/guttosm/issvwap/internal/metrics"
)

// DefaultPageLimit is the page size requested from ISS when none is configured.
const DefaultPageLimit = 5000

// archiveTimeout bounds one PageSink call.
const archiveTimeout = 30 * time.Second

// PageFetcher fetches one trade-history page. *iss.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, req iss.PageRequest) ([]models.Trade, error)
}

// PageSink receives every page appended to a tape. It is best-effort:
// a sink error is logged and never affects the tape.
type PageSink interface {
	ArchivePage(ctx context.Context, symbol, board string, page []models.Trade) error
}

// Tape owns the trade history of one symbol/board pair and grows it by pulling
// only the trades past its cursor.
type Tape struct {
	symbol  string
	board   string
	limit   int
	fetcher PageFetcher
	sink    PageSink
	log     zerolog.Logger

	mu          sync.Mutex // serializes Refresh
	lastTradeNo int64
	trades      models.Tape
}

// NewTape creates a tape positioned at the beginning of the trading session (cursor 0).
func NewTape(symbol, board string, limit int, fetcher PageFetcher, sink PageSink, log zerolog.Logger) *Tape {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &Tape{
		symbol:  symbol,
		board:   board,
		limit:   limit,
		fetcher: fetcher,
		sink:    sink,
		log:     log.With().Str("symbol", symbol).Str("board", board).Logger(),
	}
}

// Refresh pulls every trade newer than the cursor and returns the accumulated tape.
//
// Pagination stops on an empty page, on a page shorter than the limit, or on a
// non-200 status (logged, not returned). A network or decode failure is returned
// together with the tape accumulated so far; pages appended before the failure are kept.
func (t *Tape) Refresh(ctx context.Context) (models.Tape, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pages, appended := 0, 0
	for {
		page, err := t.fetcher.FetchPage(ctx, iss.PageRequest{
			Symbol: t.symbol,
			Board:  t.board,
			After:  t.lastTradeNo,
			Limit:  t.limit,
		})
		if err != nil {
			var statusErr *iss.StatusError
			if errors.As(err, &statusErr) {
				t.log.Warn().Int("status", statusErr.StatusCode).Int64("after", t.lastTradeNo).Msg("iss returned non-200, stopping pagination")
				break
			}
			t.log.Error().Err(err).Int64("after", t.lastTradeNo).Int("appended", appended).Msg("tape refresh failed")
			return t.view(), fmt.Errorf("refresh %s/%s after trade %d: %w", t.symbol, t.board, t.lastTradeNo, err)
		}
		pages++

		if len(page) == 0 {
			break
		}

		fresh := unseen(page, t.lastTradeNo)
		if len(fresh) > 0 {
			t.trades = append(t.trades, fresh...)
			t.lastTradeNo = fresh[len(fresh)-1].TradeNo
			appended += len(fresh)
			metrics.TradesAppended.WithLabelValues(t.board).Add(float64(len(fresh)))
			t.archive(ctx, fresh)
		}

		if len(page) < t.limit {
			break
		}
		if len(fresh) == 0 {
			// a full page with nothing past the cursor: the feed is not advancing
			t.log.Warn().Int64("after", t.lastTradeNo).Msg("full page without new trades, stopping pagination")
			break
		}
	}

	t.log.Debug().Int("pages", pages).Int("appended", appended).Int("total", len(t.trades)).Int64("cursor", t.lastTradeNo).Msg("tape refreshed")
	return t.view(), nil
}

// Snapshot returns the current tape without touching the network.
func (t *Tape) Snapshot() models.Tape {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view()
}

// Cursor returns the TradeNo after which the next Refresh resumes.
func (t *Tape) Cursor() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastTradeNo
}

// view caps capacity so appends by a caller can never write into the tape's backing array.
func (t *Tape) view() models.Tape {
	n := len(t.trades)
	return t.trades[:n:n]
}

// archive hands an appended page to the sink. The page is already part of the tape, so it is
// stored even when the refresh context ends right after the fetch.
func (t *Tape) archive(ctx context.Context, page []models.Trade) {
	if t.sink == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := t.sink.ArchivePage(actx, t.symbol, t.board, page); err != nil {
		t.log.Warn().Err(err).Int("rows", len(page)).Msg("archive page failed")
	}
}

// unseen returns the rows of page that keep TradeNo strictly increasing past cursor.
func unseen(page []models.Trade, cursor int64) []models.Trade {
	out := make([]models.Trade, 0, len(page))
	last := cursor
	for _, tr := range page {
		if tr.TradeNo <= last {
			continue
		}
		out = append(out, tr)
		last = tr.TradeNo
	}
	return out
}
