package ingestion

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/issvwap/internal/logger"
)

const maxWarmParallel = 8

// ParseWatchlist splits a comma-separated WATCHLIST value ("LKOH, sber,,GAZP")
// into upper-cased, de-duplicated symbols, preserving order.
func ParseWatchlist(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(s, ",") {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// Warm fetches the tapes of symbols on board so the first user query does not
// pay for paginating a whole session.
//
// Behavior:
//   - Uses a concurrency limit of parallel (0 = min(8, NumCPU)).
//   - Each symbol is refreshed through the registry, so the tapes stay tracked.
//   - If any refresh fails, the remaining ones are cancelled and that error is returned.
func Warm(ctx context.Context, reg *Registry, symbols []string, board string, parallel int) error {
	if len(symbols) == 0 {
		return nil
	}

	maxParallel := maxWarmParallel
	if parallel > 0 {
		if parallel < maxParallel {
			maxParallel = parallel
		}
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	logger.L().Info().Int("symbols", len(symbols)).Int("max_parallel", maxParallel).Msg("warm start")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, sym := range symbols {
		idx, symbol := i, sym
		g.Go(func() error {
			start := time.Now()
			tape, err := reg.Trades(gctx, symbol, board)
			if err != nil {
				logger.L().Error().Str("symbol", symbol).Dur("elapsed", time.Since(start)).Err(err).Msg("warm failed")
				return fmt.Errorf("warm %s: %w", symbol, err)
			}
			logger.L().Info().Int("idx", idx+1).Int("total", len(symbols)).Str("symbol", symbol).Int("trades", len(tape)).Dur("elapsed", time.Since(start)).Msg("warm done")
			return nil
		})
	}

	return g.Wait()
}
