package history

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	"MarketPrep/internal/service/ratelimit"
	xhttp "MarketPrep/pkg/http"
	applogger "MarketPrep/pkg/logger"
)

// Config for the HTTP bar source.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RateCapacity float64       `yaml:"rate_capacity"`
	RatePerSec   float64       `yaml:"rate_per_sec"`
}

// HTTPBarSource fetches historical bars from a chart-style HTTP endpoint
// (GET {base}/v8/finance/chart/{symbol}). Requests are throttled with a
// per-host token bucket so batch scans do not trip upstream limits.
type HTTPBarSource struct {
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	rateCap float64
	rate    float64
	l       *applogger.Logger
}

func NewHTTPBarSource(cfg Config) *HTTPBarSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rateCap := cfg.RateCapacity
	if rateCap <= 0 {
		rateCap = 5
	}
	rate := cfg.RatePerSec
	if rate <= 0 {
		rate = 2
	}
	return &HTTPBarSource{
		baseURL: cfg.BaseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: ratelimit.New(),
		rateCap: rateCap,
		rate:    rate,
	}
}

// SetLogger injects a structured logger.
func (h *HTTPBarSource) SetLogger(l *applogger.Logger) { h.l = l }

var _ domrepo.BarSource = (*HTTPBarSource)(nil)

// chartResponse mirrors the upstream chart payload. Quote arrays carry null
// for halted buckets, hence the pointer elements.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (h *HTTPBarSource) FetchLatestN(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	if h.baseURL == "" {
		return nil, fmt.Errorf("history http source not configured")
	}
	if err := h.waitForToken(ctx); err != nil {
		return nil, err
	}

	// Over-fetch the window: the upstream calendar skips weekends and
	// holidays, so wall-clock span must exceed n bar durations.
	now := time.Now()
	span := time.Duration(n) * tf.Duration() * 2
	if span < 7*24*time.Hour {
		span = 7 * 24 * time.Hour
	}
	from := now.Add(-span)

	var resp chartResponse
	err := h.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", h.baseURL, symbol),
		QueryParams: map[string][]string{
			"interval": {string(tf)},
			"period1":  {strconv.FormatInt(from.Unix(), 10)},
			"period2":  {strconv.FormatInt(now.Unix(), 10)},
		},
	}, &resp)
	if err != nil {
		if h.l != nil {
			h.l.Error("history fetch failed",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch %s/%s: %w", symbol, tf, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("fetch %s/%s: upstream %s: %s", symbol, tf, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no chart data for %s/%s", models.ErrNotFound, symbol, tf)
	}

	res := resp.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o := deref(quote.Open, i)
		hi := deref(quote.High, i)
		lo := deref(quote.Low, i)
		c := deref(quote.Close, i)
		v := deref(quote.Volume, i)
		if o <= 0 || hi <= 0 || lo <= 0 || c <= 0 {
			continue // null bucket
		}
		bars = append(bars, models.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      o, High: hi, Low: lo, Close: c,
			Volume: v,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	if h.l != nil {
		h.l.Debug("history fetch ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("bars", len(bars)),
		)
	}
	return bars, nil
}

func (h *HTTPBarSource) waitForToken(ctx context.Context) error {
	for !h.limiter.Allow("chart", h.rateCap, h.rate) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}
