package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/logger"
)

// Archive adapts a TradesRepository to the ingestion page sink.
// Trades are stamped with the session date in loc at the time they were fetched.
type Archive struct {
	repo TradesRepository
	loc  *time.Location
	now  func() time.Time
}

// NewArchive builds an Archive. A nil loc means UTC.
func NewArchive(repo TradesRepository, loc *time.Location) *Archive {
	if loc == nil {
		loc = time.UTC
	}
	return &Archive{repo: repo, loc: loc, now: time.Now}
}

// sessionDate truncates now to the calendar day in the archive location.
func (a *Archive) sessionDate() time.Time {
	y, m, d := a.now().In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ArchivePage stores one page appended to a tape.
func (a *Archive) ArchivePage(ctx context.Context, symbol, board string, page []models.Trade) error {
	n, err := a.repo.InsertTradesBatch(ctx, a.sessionDate(), symbol, board, page)
	if err != nil {
		return fmt.Errorf("archive %s/%s: %w", symbol, board, err)
	}
	logger.L().Debug().Str("symbol", symbol).Str("board", board).Int("rows", len(page)).Int64("inserted", n).Msg("page archived")
	return nil
}

// Purge deletes sessions older than retentionDays. A non-positive retention keeps everything.
func (a *Archive) Purge(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := a.sessionDate().AddDate(0, 0, -retentionDays)
	n, err := a.repo.DeleteTradesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge archive before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	logger.L().Info().Str("cutoff", cutoff.Format("2006-01-02")).Int64("deleted", n).Msg("archive purged")
	return n, nil
}
