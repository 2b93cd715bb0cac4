package ingestion

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/iss"
)

// gateFeed holds its first request until release is closed and records the context state it saw.
type gateFeed struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	page    []models.Trade

	mu      sync.Mutex
	ctxErrs []error
}

func newGateFeed(page []models.Trade) *gateFeed {
	return &gateFeed{started: make(chan struct{}), release: make(chan struct{}), page: page}
}

func (g *gateFeed) FetchPage(ctx context.Context, req iss.PageRequest) ([]models.Trade, error) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	g.mu.Lock()
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.Trade
	for _, tr := range g.page {
		if tr.TradeNo > req.After {
			out = append(out, tr)
		}
	}
	return out, nil
}

// stallFeed blocks until the request context ends.
type stallFeed struct{}

func (stallFeed) FetchPage(ctx context.Context, _ iss.PageRequest) ([]models.Trade, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRegistry_CreatesAndGrowsTape(t *testing.T) {
	feed := newFakeFeed()
	feed.publish("LKOH", "TQBR", 1, 4)
	reg := NewRegistry(feed, RegistryOptions{PageLimit: 10})

	first, err := reg.Trades(context.Background(), " lkoh ", "")
	if err != nil || len(first) != 4 {
		t.Fatalf("first len=%d err=%v", len(first), err)
	}
	if got := reg.Keys(); !reflect.DeepEqual(got, []string{"LKOH/TQBR"}) {
		t.Fatalf("keys=%v", got)
	}

	feed.publish("LKOH", "TQBR", 5, 2)
	second, err := reg.Trades(context.Background(), "LKOH", "TQBR")
	if err != nil || len(second) != 6 {
		t.Fatalf("second len=%d err=%v", len(second), err)
	}
	if !reflect.DeepEqual(second[:4], first) {
		t.Fatalf("tape was reordered or shrunk")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected a single tape for the key, got %d", reg.Len())
	}
}

func TestRegistry_BoardScopedIsolation(t *testing.T) {
	feed := newFakeFeed()
	feed.publish("LKOH", "TQBR", 1, 5)
	feed.publish("LKOH", "SMAL", 100, 2)
	reg := NewRegistry(feed, RegistryOptions{PageLimit: 10})

	tqbr, err := reg.Trades(context.Background(), "LKOH", "TQBR")
	if err != nil {
		t.Fatalf("tqbr: %v", err)
	}
	smal, err := reg.Trades(context.Background(), "LKOH", "SMAL")
	if err != nil {
		t.Fatalf("smal: %v", err)
	}
	if len(tqbr) != 5 || len(smal) != 2 || smal[0].TradeNo != 100 {
		t.Fatalf("tapes leaked across boards: tqbr=%d smal=%d", len(tqbr), len(smal))
	}
	if got := reg.Keys(); !reflect.DeepEqual(got, []string{"LKOH/SMAL", "LKOH/TQBR"}) {
		t.Fatalf("keys=%v", got)
	}

	// each board resumes from its own cursor
	_, _ = reg.Trades(context.Background(), "LKOH", "SMAL")
	last := feed.calls[len(feed.calls)-1]
	if last.Board != "SMAL" || last.After != 101 {
		t.Fatalf("unexpected cursor for SMAL: %+v", last)
	}
}

func TestRegistry_ResetClearsAllKeys(t *testing.T) {
	feed := newFakeFeed()
	feed.publish("A", "TQBR", 1, 3)
	feed.publish("B", "TQBR", 1, 3)
	reg := NewRegistry(feed, RegistryOptions{PageLimit: 10})

	for _, sym := range []string{"A", "B"} {
		if _, err := reg.Trades(context.Background(), sym, ""); err != nil {
			t.Fatalf("%s: %v", sym, err)
		}
	}
	before := feed.callCount()

	reg.Reset()
	if reg.Len() != 0 {
		t.Fatalf("reset left %d tapes", reg.Len())
	}
	if feed.callCount() != before {
		t.Fatalf("reset must not perform network calls")
	}

	got, err := reg.Trades(context.Background(), "A", "")
	if err != nil || len(got) != 3 {
		t.Fatalf("after reset len=%d err=%v", len(got), err)
	}
	if req := feed.calls[before]; req.Symbol != "A" || req.After != 0 {
		t.Fatalf("expected fresh fetch from trade 0, got %+v", req)
	}
}

func TestRegistry_ConcurrentCallersShareTape(t *testing.T) {
	feed := newFakeFeed()
	feed.publish("SBER", "TQBR", 1, 50)
	reg := NewRegistry(feed, RegistryOptions{PageLimit: 7})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := reg.Trades(context.Background(), "SBER", "TQBR")
			if err != nil {
				errs <- err
				return
			}
			if len(got) != 50 {
				t.Errorf("len=%d want 50", len(got))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := reg.Trades(context.Background(), "SBER", "TQBR")
	for i := 1; i < len(got); i++ {
		if got[i].TradeNo <= got[i-1].TradeNo {
			t.Fatalf("duplicate or interleaved page at %d", i)
		}
	}
	if len(got) != 50 {
		t.Fatalf("tape has %d trades, want 50", len(got))
	}
}

func TestRegistry_Normalize(t *testing.T) {
	reg := NewRegistry(newFakeFeed(), RegistryOptions{DefaultBoard: "TQTF"})
	sym, board := reg.Normalize(" fxus ", "")
	if sym != "FXUS" || board != "TQTF" {
		t.Fatalf("Normalize=%s,%s", sym, board)
	}
	if reg.DefaultBoard() != "TQTF" {
		t.Fatalf("default board=%s", reg.DefaultBoard())
	}
}

func TestRegistry_KeySeparatesSymbolAndBoard(t *testing.T) {
	feed := newFakeFeed()
	feed.publish("AB", "CD", 1, 2)
	feed.publish("A", "BCD", 100, 3)
	reg := NewRegistry(feed, RegistryOptions{PageLimit: 10})

	cases := []struct {
		symbol, board string
		want          int
	}{
		{symbol: "AB", board: "CD", want: 2},
		{symbol: "A", board: "BCD", want: 3},
	}
	for _, tc := range cases {
		got, err := reg.Trades(context.Background(), tc.symbol, tc.board)
		if err != nil || len(got) != tc.want {
			t.Fatalf("%s/%s: len=%d err=%v want %d", tc.symbol, tc.board, len(got), err, tc.want)
		}
	}
	if got := reg.Keys(); !reflect.DeepEqual(got, []string{"A/BCD", "AB/CD"}) {
		t.Fatalf("keys=%v", got)
	}
}

func TestRegistry_CallerCancelDoesNotFailJoinedCaller(t *testing.T) {
	feed := newGateFeed(makePage(1, 3))
	reg := NewRegistry(feed, RegistryOptions{PageLimit: 10})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := reg.Trades(ctx, "LKOH", "")
		first <- err
	}()
	<-feed.started

	type result struct {
		tape models.Tape
		err  error
	}
	joined := make(chan result, 1)
	go func() {
		got, err := reg.Trades(context.Background(), "LKOH", "")
		joined <- result{got, err}
	}()

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}

	close(feed.release)
	res := <-joined
	if res.err != nil || len(res.tape) != 3 {
		t.Fatalf("joined caller: len=%d err=%v", len(res.tape), res.err)
	}

	feed.mu.Lock()
	defer feed.mu.Unlock()
	for i, err := range feed.ctxErrs {
		if err != nil {
			t.Fatalf("fetch %d ran on a cancelled context: %v", i, err)
		}
	}
}

func TestRegistry_RefreshTimeoutBoundsSharedRefresh(t *testing.T) {
	reg := NewRegistry(stallFeed{}, RegistryOptions{RefreshTimeout: 20 * time.Millisecond})

	_, err := reg.Trades(context.Background(), "SBER", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("tape should stay tracked after a failed refresh, len=%d", reg.Len())
	}
}
