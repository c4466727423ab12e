package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"SpreadScope/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu    sync.Mutex
	Data  map[string][]model.Bar
	Errs  map[string]error
	Calls map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Data:  make(map[string][]model.Bar),
		Errs:  make(map[string]error),
		Calls: make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// CallCount returns how many times symbol was fetched.
func (m *MockFetcher) CallCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[symbol]
}

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, _ model.Granularity) ([]model.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[symbol]++
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	return m.Data[symbol], nil
}

// GenerateBars builds count bars ending at end, spaced by step, oscillating
// around basePrice with the given phase.
func GenerateBars(basePrice float64, count int, end time.Time, step time.Duration, phase int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64((i+phase)%17-8)*0.001)
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.003,
			Low:    p * 0.997,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}

// LegError attributes a retrieval failure to one leg symbol.
type LegError struct {
	Symbol string
	Err    error
}

func (e *LegError) Error() string { return fmt.Sprintf("leg %s: %v", e.Symbol, e.Err) }
func (e *LegError) Unwrap() error { return e.Err }

// Collector fetches every leg of a spread up front.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// FetchLegs retrieves each leg once, in order. Any failure aborts the whole
// fetch; schema failures keep ErrSchema, everything else becomes ErrUnavailable.
func (c *Collector) FetchLegs(ctx context.Context, legs []string, g model.Granularity) ([]model.LegSeries, error) {
	series := make([]model.LegSeries, len(legs))
	for i, symbol := range legs {
		start := time.Now()
		bars, err := c.Fetcher.FetchBars(ctx, symbol, g)
		if err != nil {
			log.WithFields(log.Fields{"symbol": symbol, "granularity": g, "source": c.Fetcher.Name()}).
				Warnf("fetch bars: %v", err)
			return nil, &LegError{Symbol: symbol, Err: classify(err)}
		}
		if len(bars) == 0 {
			return nil, &LegError{Symbol: symbol, Err: fmt.Errorf("%w: %s returned no bars", ErrUnavailable, c.Fetcher.Name())}
		}
		log.WithFields(log.Fields{"symbol": symbol, "granularity": g, "bars": len(bars)}).
			Debugf("fetched in %v", time.Since(start))
		series[i] = model.LegSeries{Symbol: symbol, Granularity: g, Bars: bars}
	}
	return series, nil
}

func classify(err error) error {
	if errors.Is(err, ErrSchema) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
