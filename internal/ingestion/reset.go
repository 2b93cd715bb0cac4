package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/issvwap/internal/logger"
)

// Resetter is anything that can drop its cached state; *Registry implements it.
type Resetter interface {
	Reset()
}

// ResetFunc adapts a plain function to Resetter.
type ResetFunc func()

func (f ResetFunc) Reset() { f() }

// timeNow is an indirection for tests.
var timeNow = time.Now

// ParseResetAt parses an "HH:MM" reset time.
func ParseResetAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid reset time %q, expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// NextReset returns the first instant strictly after now at hour:minute in loc.
func NextReset(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// RunDailyReset calls r.Reset() every day at "HH:MM" in loc until ctx is done.
// It returns ctx.Err() on cancellation, or an error if at cannot be parsed.
func RunDailyReset(ctx context.Context, r Resetter, at string, loc *time.Location) error {
	hour, minute, err := ParseResetAt(at)
	if err != nil {
		return err
	}
	if loc == nil {
		loc = time.UTC
	}

	for {
		next := NextReset(timeNow(), hour, minute, loc)
		wait := next.Sub(timeNow())
		logger.L().Info().Time("next_reset", next).Dur("in", wait).Msg("reset scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.Reset()
			logger.L().Info().Str("at", at).Str("timezone", loc.String()).Msg("scheduled reset done")
		}
	}
}
