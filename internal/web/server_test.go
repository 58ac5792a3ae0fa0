package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/concierge-services/concierge/internal/history"
	"github.com/concierge-services/concierge/internal/refresh"
)

func newTestServer(t *testing.T, store *history.Store) *Server {
	t.Helper()
	coord := refresh.NewCoordinator(nil, nil, 0, nil)
	return NewServer(0, coord, store)
}

func TestAPIServiceFallsBackToStoredResult(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	rec := &history.RefreshRecord{
		ServiceID:   "metrogas",
		ServiceName: "Metrogas",
		ServiceType: "gas",
		LastUpdated: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Attributes:  map[string]string{"total_amount": "12.013", "_raw": "internal"},
	}
	if err := store.RecordRefresh(rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	s := newTestServer(t, store)
	router := s.setupRouter()

	// The live snapshot is empty; the stored result must be served.
	req := httptest.NewRequest(http.MethodGet, "/api/services/metrogas", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var view serviceView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if view.ServiceID != "metrogas" {
		t.Errorf("service id: got %q", view.ServiceID)
	}
	if view.Attributes["total_amount"] != "12.013" {
		t.Errorf("attributes: got %v", view.Attributes)
	}
	if _, ok := view.Attributes["_raw"]; ok {
		t.Error("internal keys must not leave the process")
	}
}

func TestAPIServiceUnknownIs404(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	s := newTestServer(t, store)
	router := s.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/services/no_such_service", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
