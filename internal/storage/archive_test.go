package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guttosm/issvwap/internal/domain/models"
)

type fakeRepo struct {
	inserted    []models.Trade
	sessionDate time.Time
	symbol      string
	board       string
	cutoff      time.Time
	insertErr   error
	deleteErr   error
}

func (f *fakeRepo) InsertTradesBatch(_ context.Context, sessionDate time.Time, symbol, board string, trades []models.Trade) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.sessionDate, f.symbol, f.board = sessionDate, symbol, board
	f.inserted = append(f.inserted, trades...)
	return int64(len(trades)), nil
}

func (f *fakeRepo) DeleteTradesBefore(_ context.Context, date time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.cutoff = date
	return 7, nil
}

func fixedArchive(repo TradesRepository, loc *time.Location, now time.Time) *Archive {
	a := NewArchive(repo, loc)
	a.now = func() time.Time { return now }
	return a
}

func TestArchive_PageStampedWithLocalSessionDate(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	repo := &fakeRepo{}
	// 22:30 UTC on the 11th is already the 12th in Moscow
	a := fixedArchive(repo, msk, time.Date(2025, 9, 11, 22, 30, 0, 0, time.UTC))

	if err := a.ArchivePage(context.Background(), "LKOH", "TQBR", sampleTrades); err != nil {
		t.Fatalf("ArchivePage: %v", err)
	}
	if !repo.sessionDate.Equal(sessionDay) {
		t.Fatalf("session date=%v want %v", repo.sessionDate, sessionDay)
	}
	if repo.symbol != "LKOH" || repo.board != "TQBR" || len(repo.inserted) != 2 {
		t.Fatalf("unexpected insert: %+v", repo)
	}
}

func TestArchive_PageErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	a := fixedArchive(&fakeRepo{insertErr: boom}, nil, sessionDay)

	err := a.ArchivePage(context.Background(), "SBER", "TQBR", sampleTrades)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestArchive_Purge(t *testing.T) {
	cases := []struct {
		name       string
		retention  int
		wantCutoff time.Time
		wantN      int64
	}{
		{name: "disabled", retention: 0},
		{name: "negative", retention: -3},
		{name: "thirty days", retention: 30, wantCutoff: time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC), wantN: 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			a := fixedArchive(repo, time.UTC, sessionDay.Add(15*time.Hour))

			n, err := a.Purge(context.Background(), tc.retention)
			if err != nil {
				t.Fatalf("Purge: %v", err)
			}
			if n != tc.wantN || !repo.cutoff.Equal(tc.wantCutoff) {
				t.Fatalf("n=%d cutoff=%v want %d %v", n, repo.cutoff, tc.wantN, tc.wantCutoff)
			}
		})
	}
}

func TestArchive_PurgeError(t *testing.T) {
	a := fixedArchive(&fakeRepo{deleteErr: dummyErr{}}, time.UTC, sessionDay)
	if _, err := a.Purge(context.Background(), 1); err == nil {
		t.Fatalf("expected error")
	}
}
