package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	internalrepo "MarketPrep/internal/repository"
	"MarketPrep/internal/services/indicators"
	"MarketPrep/internal/services/levels"
	"MarketPrep/internal/services/scoring"
	"MarketPrep/internal/usecase"
	xlogger "MarketPrep/pkg/logger"

	"github.com/labstack/echo/v4"
)

type noopMetrics struct{}

func (noopMetrics) RecordBarIngested(string, string) {}
func (noopMetrics) RecordReport(string, bool) {}
func (noopMetrics) RecordCache(string) {}
func (noopMetrics) RecordError(string) {}
func (noopMetrics) RecordLastClose(string, float64) {}
func (noopMetrics) RecordLatency(string, float64) {}

func testBars(n int) []models.Bar {
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		if i%2 == 0 {
			price += 1.5
		} else {
			price -= 0.5
		}
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price - 0.5, High: price + 1, Low: price - 1, Close: price,
			Volume: 1000,
		}
	}
	return bars
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	store := internalrepo.NewMemoryBarStore(0)
	if err := store.Put("AAPL", domrepo.TF1d, testBars(120)); err != nil {
		t.Fatalf("put: %v", err)
	}

	barsUC := usecase.NewBarsUseCase(store, nil)
	assembler := usecase.NewReportAssembler(
		barsUC,
		indicators.NewRegistry(),
		indicators.DefaultConfig(),
		levels.NewDetector(levels.DefaultConfig()),
		scoring.NewScorer(scoring.DefaultConfig()),
		noopMetrics{},
	)
	scan := usecase.NewScanUseCase(assembler, nil, nil, noopMetrics{}, 2)

	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	e := echo.New()
	NewReportsEchoHandler(l, barsUC, assembler, scan).RegisterRoutes(e)
	return e
}

func TestReportEndpointRoundTrips(t *testing.T) {
	e := newTestServer(t)

	// no tfs parameter: the request default must kick in
	req := httptest.NewRequest(http.MethodGet, "/api/report?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Status int           `json:"status"`
		Data   models.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode report response: %v", err)
	}
	if envelope.Data.Symbol != "AAPL" {
		t.Fatalf("unexpected symbol %q", envelope.Data.Symbol)
	}

	rsi, ok := envelope.Data.Indicators["1d"]["RSI14"]
	if !ok {
		t.Fatalf("missing RSI14 in decoded report")
	}
	if !math.IsNaN(rsi[0]) {
		t.Fatalf("expected leading lookback entry to decode as NaN, got %v", rsi[0])
	}
	if last := rsi[len(rsi)-1]; math.IsNaN(last) {
		t.Fatalf("expected trailing entry to be defined")
	}
}

func TestIndicatorsEndpointSerializesUndefined(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/indicators?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "null") {
		t.Fatalf("expected undefined entries to serialize as null")
	}
}

func TestLevelsEndpointDefaultsTimeframe(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/levels?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with default tfs, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBarsEndpointRange(t *testing.T) {
	e := newTestServer(t)

	from := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	to := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, "/api/bars?symbol=AAPL&from="+from+"&to="+to, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data usecase.GetBarsResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode bars response: %v", err)
	}
	if envelope.Data.Count != 21 {
		t.Fatalf("expected 21 bars in window, got %d", envelope.Data.Count)
	}
	for _, b := range envelope.Data.Bars {
		if b.Timestamp.Before(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("bar %v before range start", b.Timestamp)
		}
	}
}
