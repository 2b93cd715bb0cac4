package ingestion

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/logger"
	"github.com/guttosm/issvwap/internal/metrics"
)

// DefaultBoard is the board used when a caller does not name one.
const DefaultBoard = "TQBR"

// DefaultRefreshTimeout bounds a shared refresh when RegistryOptions.RefreshTimeout is zero.
const DefaultRefreshTimeout = 2 * time.Minute

// RegistryOptions tunes a Registry. Zero values fall back to the package defaults.
type RegistryOptions struct {
	PageLimit      int
	DefaultBoard   string
	RefreshTimeout time.Duration
	Sink           PageSink
}

// Registry maps symbol/board to the Tape tracking it. It is the single entry point
// for "give me all known trades for this symbol" and "forget everything".
//
// Concurrent Trades calls for the same key share one refresh.
type Registry struct {
	fetcher        PageFetcher
	sink           PageSink
	limit          int
	defaultBoard   string
	refreshTimeout time.Duration
	log            zerolog.Logger

	mu    sync.Mutex
	tapes map[string]*Tape
	group singleflight.Group
}

// NewRegistry creates an empty registry backed by fetcher.
func NewRegistry(fetcher PageFetcher, opts RegistryOptions) *Registry {
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.DefaultBoard == "" {
		opts.DefaultBoard = DefaultBoard
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	return &Registry{
		fetcher:        fetcher,
		sink:           opts.Sink,
		limit:          opts.PageLimit,
		defaultBoard:   opts.DefaultBoard,
		refreshTimeout: opts.RefreshTimeout,
		log:            logger.Component("registry"),
		tapes:          make(map[string]*Tape),
	}
}

// DefaultBoard returns the board applied to requests without one.
func (r *Registry) DefaultBoard() string {
	return r.defaultBoard
}

// Normalize upper-cases the symbol and applies the default board. Boards are matched exactly.
func (r *Registry) Normalize(symbol, board string) (string, string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	board = strings.TrimSpace(board)
	if board == "" {
		board = r.defaultBoard
	}
	return symbol, board
}

// Trades returns every known trade for symbol on board, fetching the ones not seen yet.
//
// The tape is created on first use. The returned slice is shared: callers must not mutate it.
// On a fetch error the tape accumulated so far is returned alongside the error.
//
// The shared refresh runs detached from any single caller, bounded by the refresh timeout,
// so a caller that gives up returns ctx.Err() without failing the others that joined it.
func (r *Registry) Trades(ctx context.Context, symbol, board string) (models.Tape, error) {
	symbol, board = r.Normalize(symbol, board)
	key := tapeKey(symbol, board)
	tape := r.tapeFor(key, symbol, board)

	ch := r.group.DoChan(key, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.refreshTimeout)
		defer cancel()
		return tape.Refresh(rctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			r.log.Debug().Str("key", key).Msg("joined in-flight refresh")
		}
		trades, _ := res.Val.(models.Tape)
		return trades, res.Err
	case <-ctx.Done():
		r.log.Debug().Str("key", key).Err(ctx.Err()).Msg("caller left in-flight refresh")
		return nil, ctx.Err()
	}
}

// tapeKey identifies a tape; the separator keeps ("AB","CD") and ("A","BCD") apart.
func tapeKey(symbol, board string) string {
	return symbol + "/" + board
}

// tapeFor returns the tape for key, creating it if absent.
func (r *Registry) tapeFor(key, symbol, board string) *Tape {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tapes[key]; ok {
		return t
	}
	t := NewTape(symbol, board, r.limit, r.fetcher, r.sink, r.log)
	r.tapes[key] = t
	metrics.TapesTracked.Set(float64(len(r.tapes)))
	r.log.Info().Str("symbol", symbol).Str("board", board).Msg("tape created")
	return t
}

// Reset drops every tracked tape. No network calls are made.
// A refresh already in flight completes against its orphaned tape; its result is not kept.
func (r *Registry) Reset() {
	r.mu.Lock()
	dropped := len(r.tapes)
	for key := range r.tapes {
		r.group.Forget(key)
	}
	r.tapes = make(map[string]*Tape)
	r.mu.Unlock()

	metrics.TapesTracked.Set(0)
	metrics.Resets.Inc()
	r.log.Info().Int("dropped", dropped).Msg("registry reset")
}

// Keys lists the tracked "SYMBOL/BOARD" keys in lexical order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.tapes))
	for k := range r.tapes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of tracked tapes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tapes)
}
