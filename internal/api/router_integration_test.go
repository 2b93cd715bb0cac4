//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/issvwap/config"
	"github.com/guttosm/issvwap/internal/app"
)

func startPG(t *testing.T) (dsn string, host string, port nat.Port, terminate func()) {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "issvwap",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=issvwap sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", h, mp.Port(), "issvwap")
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, h, mp, terminate
}

// fakeISS serves two pages of LKOH trades honoring the tradeno cursor and limit.
func fakeISS(t *testing.T) *httptest.Server {
	t.Helper()
	trades := []string{
		`{"TRADENO": 1, "TRADETIME": "10:00:00", "PRICE": 10, "QUANTITY": 2, "BUYSELL": "B"}`,
		`{"TRADENO": 2, "TRADETIME": "10:00:05", "PRICE": 20, "QUANTITY": 1, "BUYSELL": "S"}`,
		`{"TRADENO": 3, "TRADETIME": "11:30:00", "PRICE": 30, "QUANTITY": 3, "BUYSELL": "B"}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.Atoi(r.URL.Query().Get("tradeno"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		body := `[{"charsetinfo": {"name": "utf-8"}}, {"trades": [`
		n := 0
		for i := after; i < len(trades) && n < limit; i++ {
			if n > 0 {
				body += ","
			}
			body += trades[i]
			n++
		}
		body += `]}]`
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPI_E2E_VWAPWithArchive(t *testing.T) {
	dsn, host, port, term := startPG(t)
	defer term()
	iss := fakeISS(t)

	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	p, _ := strconv.Atoi(port.Port())
	config.AppConfig = config.Config{
		Server:  config.ServerConfig{Port: "0", BatchParallel: 2},
		ISS:     config.ISSConfig{BaseURL: iss.URL, Engine: "stock", Market: "shares", DefaultBoard: "TQBR", PageLimit: 2, Timeout: 5 * time.Second},
		Reset:   config.ResetConfig{Enabled: true, At: "02:00", Timezone: "Europe/Moscow"},
		Archive: config.ArchiveConfig{Enabled: true, RetentionDays: 30},
		Postgres: config.PostgresConfig{
			Host: host, Port: p, User: "postgres", Password: "postgres", DBName: "issvwap", SSLMode: "disable",
		},
	}

	a, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/vwap?ticker=LKOH&begin=10:00&end=11:00", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var body struct {
		Ticker        string  `json:"ticker"`
		VWAP          float64 `json:"vwap"`
		TotalQuantity int64   `json:"total_quantity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Ticker != "LKOH" || body.VWAP != 13.33 || body.TotalQuantity != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	var archived int
	if err := db.QueryRow(`SELECT COUNT(*) FROM iss_trades WHERE symbol='LKOH' AND board='TQBR'`).Scan(&archived); err != nil {
		t.Fatalf("count: %v", err)
	}
	if archived != 3 {
		t.Fatalf("archived=%d want 3", archived)
	}

	// after a reset the tape is refetched from trade 0 without duplicating archived rows
	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/vwap/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("reset status=%d", w.Code)
	}
	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/vwap?ticker=LKOH", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status after reset: %d", w.Code)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM iss_trades`).Scan(&archived); err != nil {
		t.Fatalf("count: %v", err)
	}
	if archived != 3 {
		t.Fatalf("archived after reset=%d want 3", archived)
	}
}
