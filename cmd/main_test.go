package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/service"
)

type dummyHandler struct{}

func (d dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestStartServerAndShutdown(t *testing.T) {
	srv := startServer(dummyHandler{}, "0") // random port
	if srv == nil {
		t.Fatalf("expected server")
	}

	// Give server a moment to start
	time.Sleep(50 * time.Millisecond)

	shutdownCtx, c := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer c()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		t.Fatalf("shutdown err: %v", err)
	}
}

func TestGracefulShutdown_SignalPath(t *testing.T) {
	srv := startServer(dummyHandler{}, "0")

	cleaned := make(chan struct{}, 1)
	go func() {
		gracefulShutdown(context.Background(), srv, func() { close(cleaned) })
	}()

	// Give the goroutine time to set up signal notifications
	time.Sleep(50 * time.Millisecond)

	p, _ := os.FindProcess(os.Getpid())
	_ = p.Signal(syscall.SIGTERM)

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatalf("cleanup not called after SIGTERM")
	}
}

type stubService struct {
	vwapQ service.VWAPQuery
	compQ service.CompletionQuery
	err   error
}

func (s *stubService) GetVWAP(_ context.Context, q service.VWAPQuery) (*models.VWAP, error) {
	s.vwapQ = q
	if s.err != nil {
		return nil, s.err
	}
	return &models.VWAP{
		Symbol: "LKOH", Price: decimal.RequireFromString("13.3333"), TotalQuantity: 3,
		FirstTradeTime: models.Clock(10, 0, 0), LastTradeTime: models.Clock(10, 0, 5), Decimals: 2,
	}, nil
}

func (s *stubService) GetCompletion(_ context.Context, q service.CompletionQuery) (*models.Completion, error) {
	s.compQ = q
	return &models.Completion{
		VWAP: models.VWAP{
			Symbol: "LKOH", Price: decimal.NewFromInt(20), TotalQuantity: 120,
			FirstTradeTime: models.Clock(10, 0, 0), LastTradeTime: models.Clock(10, 2, 0), Decimals: 2,
		},
		Target: 100, Percent: decimal.NewFromInt(100), Reached: true,
	}, nil
}

func (s *stubService) GetVWAPBatch(context.Context, []string, string, *time.Time, *time.Time) (*service.BatchResult, error) {
	return nil, errors.New("not used")
}

func (s *stubService) Reset(context.Context) error { return nil }

func TestRunVWAP(t *testing.T) {
	cases := []struct {
		name    string
		args    vwapArgs
		svc     *stubService
		want    string
		wantErr bool
	}{
		{
			name: "vwap summary",
			args: vwapArgs{ticker: "LKOH", begin: "10:00", end: "11:00"},
			svc:  &stubService{},
			want: "LKOH 13.33@3 (10:00:00 - 10:00:05)\n",
		},
		{
			name: "completion summary",
			args: vwapArgs{ticker: "LKOH", begin: "10:00", target: 100, percent: 50},
			svc:  &stubService{},
			want: "LKOH 20.00@120 (10:00:00 - 10:02:00), target 100 reached at 10:02:00\n",
		},
		{name: "bad begin", args: vwapArgs{ticker: "LKOH", begin: "ten"}, svc: &stubService{}, wantErr: true},
		{name: "service error", args: vwapArgs{ticker: "LKOH"}, svc: &stubService{err: service.ErrNoData}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runVWAP(context.Background(), tc.svc, tc.args, &out)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("runVWAP: %v", err)
			}
			if out.String() != tc.want {
				t.Fatalf("output %q want %q", out.String(), tc.want)
			}
		})
	}
}

func TestRunVWAP_ForwardsQuery(t *testing.T) {
	svc := &stubService{}
	if err := runVWAP(context.Background(), svc, vwapArgs{ticker: "sber", board: "SMAL", begin: "10:00", target: 5, percent: 25}, &bytes.Buffer{}); err != nil {
		t.Fatalf("runVWAP: %v", err)
	}
	q := svc.compQ
	if q.Ticker != "sber" || q.Board != "SMAL" || q.Target != 5 || q.Percent == nil || !q.Percent.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected query %+v", q)
	}
}
