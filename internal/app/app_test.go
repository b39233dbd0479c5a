package app

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guttosm/debpulse/config"
)

func stubOpener(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	old := postgresOpener
	postgresOpener = func(config.Config) (*sql.DB, error) { return db, err }
	t.Cleanup(func() { postgresOpener = old })
}

func batchConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	return config.Config{
		Source: config.SourceConfig{BaseURL: "http://127.0.0.1:1/arqs/", FilePrefix: "db"},
		Batch: config.BatchConfig{
			DownloadDir:  filepath.Join(dir, "Daily Prices"),
			OutputFile:   filepath.Join(dir, "out.csv"),
			NumDays:      5,
			OutputHeader: "on_create",
			Calendar:     "weekdays",
		},
		Fetch: config.FetchConfig{MaxAttempts: 1},
	}
}

// TestInitPostgres_InvalidHost expects ping failure.
func TestInitPostgres_InvalidHost(t *testing.T) {
	cfg := config.Config{Postgres: config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     54329, // unlikely mapped
		User:     "x",
		Password: "y",
		DBName:   "z",
		SSLMode:  "disable",
	}}
	db, err := InitPostgres(cfg)
	if err == nil {
		_ = db.Close()
		t.Fatalf("expected error connecting to invalid DB")
	}
}

func TestInitializeApp_DBFailure(t *testing.T) {
	stubOpener(t, nil, errors.New("connection refused"))

	r, cleanup, err := InitializeApp()
	if err == nil || r != nil || cleanup != nil {
		if cleanup != nil {
			cleanup()
		}
		t.Fatalf("expected error from InitializeApp with unreachable DB")
	}
}

func TestInitializeApp_HappyPath(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	mock.ExpectPing()
	mock.ExpectClose()
	stubOpener(t, db, nil)

	router, cleanup, err := InitializeApp()
	if err != nil || router == nil || cleanup == nil {
		t.Fatalf("InitializeApp failed: err=%v", err)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/prices", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("prices without date status=%d", w.Code)
	}

	cleanup()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewBatch_CSVOnly(t *testing.T) {
	stubOpener(t, nil, errors.New("must not be called"))

	proc, cleanup, err := NewBatch(batchConfig(t))
	if err != nil || proc == nil || cleanup == nil {
		t.Fatalf("NewBatch: proc=%v err=%v", proc, err)
	}
	cleanup()
}

func TestNewBatch_InvalidSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "unknown calendar", mutate: func(c *config.Config) { c.Batch.Calendar = "lunar" }},
		{name: "unknown header policy", mutate: func(c *config.Config) { c.Batch.OutputHeader = "sometimes" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := batchConfig(t)
			tc.mutate(&cfg)
			proc, cleanup, err := NewBatch(cfg)
			if err == nil || proc != nil {
				t.Fatalf("expected error, got proc=%v", proc)
			}
			cleanup()
		})
	}
}

func TestNewBatch_PostgresSink(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	mock.ExpectClose()
	stubOpener(t, db, nil)

	cfg := batchConfig(t)
	cfg.Postgres.Enabled = true
	proc, cleanup, err := NewBatch(cfg)
	if err != nil || proc == nil {
		t.Fatalf("NewBatch: %v", err)
	}
	cleanup()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("cleanup should close the db: %v", err)
	}
}

func TestNewBatch_PostgresUnavailable(t *testing.T) {
	stubOpener(t, nil, errors.New("connection refused"))

	cfg := batchConfig(t)
	cfg.Postgres.Enabled = true
	if _, _, err := NewBatch(cfg); err == nil {
		t.Fatalf("expected error when the enabled sink cannot connect")
	}
}
