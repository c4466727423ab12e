package collector

import (
	"context"
	"errors"
	"time"

	"SpreadScope/internal/model"
)

var (
	// ErrUnavailable means the source has no bars for the request.
	ErrUnavailable = errors.New("bars unavailable")
	// ErrSchema means the source returned bars without the expected OHLC fields.
	ErrSchema = errors.New("bars schema mismatch")
)

// ExchangeLocation is the wall clock of the futures exchanges (UTC+8).
var ExchangeLocation = time.FixedZone("CST", 8*3600)

// Fetcher defines the interface for fetching per-leg bar history.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, g model.Granularity) ([]model.Bar, error)
	Name() string
}
