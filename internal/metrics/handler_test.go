package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/mockboard/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// TestHandler_ServesMetrics はレジストリの内容がPrometheus形式で返ることを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordStoreEvent(store.EventStoreReset)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `mockboard_store_events_total{kind="store.reset"} 1`) {
		t.Errorf("response should contain store.reset counter, got:\n%s", body)
	}
}
