package health

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(store StatusStore, counters PipelineCounters) *Server {
	return NewServer(ServerConfig{
		ListenAddr: ":0",
		InstanceID: "inst-1",
		Version:    "1.2.3",
	}, NewCollector(store, counters), store, testLogger())
}

func TestHandleHealthz_OK(t *testing.T) {
	s := newTestServer(&fakeStatusStore{}, nil)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestHandleHealthz_DatabaseDown(t *testing.T) {
	s := newTestServer(&fakeStatusStore{pingErr: errors.New("connection refused")}, nil)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleStatus_FullSnapshot(t *testing.T) {
	store := &fakeStatusStore{
		pool:    types.PoolStats{MaxConnections: 10},
		active:  3,
		history: 7,
	}
	counters := &fakeCounters{stats: types.PipelineStats{Received: 11, Kept: 6, Dropped: 5}}

	s := newTestServer(store, counters)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		InstanceID string               `json:"instance_id"`
		Version    string               `json:"version"`
		Database   types.DatabaseHealth `json:"database"`
		Pipeline   types.PipelineStats  `json:"pipeline"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}

	if body.InstanceID != "inst-1" {
		t.Errorf("instance_id = %q, want inst-1", body.InstanceID)
	}
	if body.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", body.Version)
	}
	if body.Database.ActiveAlarms != 3 || body.Database.HistoryAlarms != 7 {
		t.Errorf("counts = %d/%d, want 3/7",
			body.Database.ActiveAlarms, body.Database.HistoryAlarms)
	}
	if body.Pipeline.Received != 11 {
		t.Errorf("pipeline received = %d, want 11", body.Pipeline.Received)
	}
}

func TestHandleStatus_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&fakeStatusStore{}, nil)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest("POST", "/status", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
