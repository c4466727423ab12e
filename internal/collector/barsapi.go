package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"

	"SpreadScope/internal/model"
)

// BarsAPIFetcher implements Fetcher against a REST bar endpoint.
type BarsAPIFetcher struct {
	BaseURL string
	APIKey  string
	Retries int
	Client  *resty.Client
	Backoff *backoff.Backoff

	// Location is the zone bar times are presented in.
	Location *time.Location
}

// NewBarsAPIFetcher creates a new fetcher with optional proxy support.
func NewBarsAPIFetcher(baseURL, apiKey, proxyURL string, retries int) *BarsAPIFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &BarsAPIFetcher{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Retries:  retries,
		Client:   client,
		Backoff:  &backoff.Backoff{Min: 500 * time.Millisecond, Max: 8 * time.Second, Factor: 2, Jitter: true},
		Location: ExchangeLocation,
	}
}

func (f *BarsAPIFetcher) Name() string { return "barsapi" }

// apiBar is the expected JSON shape from the bar endpoint. Pointer fields
// distinguish a missing column from a zero price.
type apiBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    float64  `json:"volume"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.code, e.body)
}

func (e *statusError) temporary() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// FetchBars requests the full bar history for symbol, retrying transient failures.
func (f *BarsAPIFetcher) FetchBars(ctx context.Context, symbol string, g model.Granularity) ([]model.Bar, error) {
	b := &backoff.Backoff{Min: f.Backoff.Min, Max: f.Backoff.Max, Factor: f.Backoff.Factor, Jitter: f.Backoff.Jitter}
	for attempt := 0; ; attempt++ {
		bars, err := f.fetchOnce(ctx, symbol, g)
		if err == nil {
			return bars, nil
		}
		if !retryable(err) || attempt >= f.Retries {
			return nil, err
		}
		wait := b.Duration()
		log.Warnf("fetch %s %s failed (attempt %d/%d): %v, retrying in %v", symbol, g, attempt+1, f.Retries+1, err, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.temporary()
	}
	return !errors.Is(err, ErrUnavailable) &&
		!errors.Is(err, ErrSchema) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func (f *BarsAPIFetcher) fetchOnce(ctx context.Context, symbol string, g model.Granularity) ([]model.Bar, error) {
	resp, err := f.Client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": symbol, "interval": string(g)}).
		Get("/api/v1/bars")
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrUnavailable, symbol, g)
	case resp.StatusCode() != http.StatusOK:
		return nil, &statusError{code: resp.StatusCode(), body: resp.String()}
	}

	var raw []apiBar
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode bars: %v", ErrSchema, err)
	}
	return convertAPIBars(symbol, raw, f.Location)
}

func convertAPIBars(symbol string, raw []apiBar, loc *time.Location) ([]model.Bar, error) {
	if loc == nil {
		loc = ExchangeLocation
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s returned no bars", ErrUnavailable, symbol)
	}
	bars := make([]model.Bar, len(raw))
	for i, rb := range raw {
		if rb.Open == nil || rb.High == nil || rb.Low == nil || rb.Close == nil {
			return nil, fmt.Errorf("%w: %s bar %d lacks OHLC fields", ErrSchema, symbol, i)
		}
		bars[i] = model.Bar{
			Time:   time.Unix(rb.Timestamp, 0).In(loc),
			Open:   *rb.Open,
			High:   *rb.High,
			Low:    *rb.Low,
			Close:  *rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
