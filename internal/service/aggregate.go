package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/issvwap/internal/domain/models"
)

// TradeSource hands out the up-to-date tape of a symbol/board. *ingestion.Registry implements it.
type TradeSource interface {
	Trades(ctx context.Context, symbol, board string) (models.Tape, error)
	Normalize(symbol, board string) (string, string)
	Reset()
}

// VWAPQuery selects a ticker and an optional [Begin, End) time-of-day window.
type VWAPQuery struct {
	Ticker string
	Board  string
	Begin  *time.Time
	End    *time.Time
}

// CompletionQuery asks when Percent% of the traded volume since Begin reaches Target.
type CompletionQuery struct {
	Ticker  string
	Board   string
	Begin   *time.Time
	Target  int64
	Percent *decimal.Decimal
}

// BatchResult holds the VWAPs of a batch query, in request order.
// Tickers without data for the window are listed in Missing.
type BatchResult struct {
	Results []*models.VWAP
	Missing []string
}

// VWAPService defines business logic for VWAP queries over live trade tapes.
type VWAPService interface {
	GetVWAP(ctx context.Context, q VWAPQuery) (*models.VWAP, error)
	GetCompletion(ctx context.Context, q CompletionQuery) (*models.Completion, error)
	GetVWAPBatch(ctx context.Context, tickers []string, board string, begin, end *time.Time) (*BatchResult, error)
	Reset(ctx context.Context) error
}

// Options tunes a VWAPService.
type Options struct {
	// BatchParallel bounds concurrent tape refreshes of a batch query (default 4).
	BatchParallel int
	// OnReset runs after the source was reset, e.g. to purge the archive.
	OnReset func(ctx context.Context)
}

type vwapService struct {
	source   TradeSource
	parallel int
	onReset  func(ctx context.Context)
}

func NewVWAPService(source TradeSource, opts Options) VWAPService {
	if opts.BatchParallel <= 0 {
		opts.BatchParallel = 4
	}
	return &vwapService{source: source, parallel: opts.BatchParallel, onReset: opts.OnReset}
}

func (s *vwapService) GetVWAP(ctx context.Context, q VWAPQuery) (*models.VWAP, error) {
	symbol, board, err := s.normalize(q.Ticker, q.Board)
	if err != nil {
		return nil, err
	}
	if q.Begin != nil && q.End != nil && !q.Begin.Before(*q.End) {
		return nil, invalid("range", "begin must be before end")
	}

	tape, err := s.tape(ctx, symbol, board)
	if err != nil {
		return nil, err
	}
	return ComputeVWAP(symbol, board, tape, q.Begin, q.End)
}

func (s *vwapService) GetCompletion(ctx context.Context, q CompletionQuery) (*models.Completion, error) {
	symbol, board, err := s.normalize(q.Ticker, q.Board)
	if err != nil {
		return nil, err
	}
	if _, err := completionParams(q.Begin, q.Target, q.Percent); err != nil {
		return nil, err
	}

	tape, err := s.tape(ctx, symbol, board)
	if err != nil {
		return nil, err
	}
	return ComputeCompletion(symbol, board, tape, q.Begin, q.Target, q.Percent)
}

func (s *vwapService) GetVWAPBatch(ctx context.Context, tickers []string, board string, begin, end *time.Time) (*BatchResult, error) {
	if len(tickers) == 0 {
		return nil, invalid("tickers", "at least one ticker is required")
	}
	if begin != nil && end != nil && !begin.Before(*end) {
		return nil, invalid("range", "begin must be before end")
	}

	results := make([]*models.VWAP, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, ticker := range tickers {
		g.Go(func() error {
			v, err := s.GetVWAP(gctx, VWAPQuery{Ticker: ticker, Board: board, Begin: begin, End: end})
			if IsNoData(err) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BatchResult{Results: make([]*models.VWAP, 0, len(tickers)), Missing: []string{}}
	for i, v := range results {
		if v == nil {
			sym, _ := s.source.Normalize(tickers[i], board)
			out.Missing = append(out.Missing, sym)
			continue
		}
		out.Results = append(out.Results, v)
	}
	return out, nil
}

func (s *vwapService) Reset(ctx context.Context) error {
	s.source.Reset()
	if s.onReset != nil {
		s.onReset(ctx)
	}
	return nil
}

func (s *vwapService) normalize(ticker, board string) (string, string, error) {
	if strings.TrimSpace(ticker) == "" {
		return "", "", invalid("ticker", "ticker is required")
	}
	symbol, board := s.source.Normalize(ticker, board)
	return symbol, board, nil
}

// tape refreshes and returns the tape. The source keeps what it accumulated before a fetch
// error, so the next query resumes from there.
func (s *vwapService) tape(ctx context.Context, symbol, board string) (models.Tape, error) {
	tape, err := s.source.Trades(ctx, symbol, board)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrUpstream, symbol, board, err)
	}
	return tape, nil
}
