package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domrepo "MarketPrep/internal/domain/repository"
)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1738800000, 1738886400, 1738972800, 1739059200],
      "indicators": {
        "quote": [{
          "open":   [100.0, 101.0, null, 103.0],
          "high":   [101.5, 102.5, null, 104.5],
          "low":    [ 99.5, 100.5, null, 102.5],
          "close":  [101.0, 102.0, null, 104.0],
          "volume": [1000, 1100, null, 1300]
        }]
      }
    }],
    "error": null
  }
}`

func TestFetchLatestNParsesAndSkipsNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval=%q, want 1d", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	src := NewHTTPBarSource(Config{BaseURL: srv.URL, RateCapacity: 10, RatePerSec: 10})
	bars, err := src.FetchLatestN(context.Background(), "AAPL", 10, domrepo.TF1d)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars after null skip, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Timestamp.Before(bars[i].Timestamp) {
			t.Fatalf("bars not ascending at %d", i)
		}
	}
	if bars[2].Close != 104.0 {
		t.Fatalf("last close %v, want 104", bars[2].Close)
	}
}

func TestFetchLatestNTrimsToN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	src := NewHTTPBarSource(Config{BaseURL: srv.URL, RateCapacity: 10, RatePerSec: 10})
	bars, err := src.FetchLatestN(context.Background(), "AAPL", 2, domrepo.TF1d)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Close != 104.0 {
		t.Fatalf("trim should keep the latest bars, last close %v", bars[1].Close)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	src := NewHTTPBarSource(Config{BaseURL: srv.URL, RateCapacity: 10, RatePerSec: 10})
	if _, err := src.FetchLatestN(context.Background(), "NOPE", 10, domrepo.TF1d); err == nil {
		t.Fatalf("expected upstream error")
	}
}
