package recorder

import "time"

// RunEvent holds the outcome of one spread computation.
type RunEvent struct {
	RunID       string        `json:"run_id"`
	At          time.Time     `json:"at"`
	Strategy    string        `json:"strategy"`
	Legs        string        `json:"legs"`
	Granularity string        `json:"granularity"`
	Outcome     string        `json:"outcome"`
	Stage       string        `json:"stage"`
	Leg         string        `json:"leg"`
	Rows        int           `json:"rows"`
	CacheHit    bool          `json:"cache_hit"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error"`
}

// SnapshotEvent holds the latest row of a watchlist refresh.
type SnapshotEvent struct {
	RunID       string
	Preset      string
	Granularity string
	BarTime     time.Time
	Close       float64
	AvgPrice    float64
	SMA         *float64
	UpperBand   *float64
	LowerBand   *float64
	DayHigh     float64
	DayLow      float64
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordSnapshot(evt *SnapshotEvent) error
	RecentRuns(limit int) ([]RunEvent, error)
	Close() error
}
