package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics, updateGauges func()) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler(updateGauges).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestMetrics_CountersAppearInScrape(t *testing.T) {
	m := New()
	m.IncVideoSaves()
	m.IncVideoSaves()
	m.IncExports()

	body := scrape(t, m, nil)
	if !strings.Contains(body, "cuetube_video_saves_total 2") {
		t.Errorf("save counter missing or wrong:\n%s", body)
	}
	if !strings.Contains(body, "cuetube_exports_total 1") {
		t.Errorf("export counter missing or wrong:\n%s", body)
	}
}

func TestMetrics_GaugeRefreshedBeforeScrape(t *testing.T) {
	m := New()
	body := scrape(t, m, func() { m.SetActiveSessions(3) })
	if !strings.Contains(body, "cuetube_active_sessions 3") {
		t.Errorf("gauge not refreshed:\n%s", body)
	}
}

func TestRequestMiddleware_CountsRequestsAndErrors(t *testing.T) {
	m := New()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fail := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	mw := RequestMiddleware(m)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		mw(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}
	rec := httptest.NewRecorder()
	mw(fail).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := scrape(t, m, nil)
	if !strings.Contains(body, "cuetube_requests_total 4") {
		t.Errorf("request counter wrong:\n%s", body)
	}
	if !strings.Contains(body, "cuetube_errors_total 1") {
		t.Errorf("error counter wrong:\n%s", body)
	}
}
