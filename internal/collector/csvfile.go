package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"SpreadScope/internal/model"
)

// CSVFetcher reads bars from {Dir}/{symbol}_{granularity}.csv.
type CSVFetcher struct {
	Dir      string
	Location *time.Location
}

// NewCSVFetcher creates a fetcher over a directory of exported bar files.
// Timestamps without a zone are read in loc (ExchangeLocation when nil).
func NewCSVFetcher(dir string, loc *time.Location) *CSVFetcher {
	if loc == nil {
		loc = ExchangeLocation
	}
	return &CSVFetcher{Dir: dir, Location: loc}
}

func (f *CSVFetcher) Name() string { return "csv" }

// column aliases, English first, then the vendor's Chinese headers.
var csvColumns = map[string][]string{
	"time":   {"time", "datetime", "timestamp", "时间"},
	"open":   {"open", "开盘价"},
	"high":   {"high", "最高价"},
	"low":    {"low", "最低价"},
	"close":  {"close", "收盘价"},
	"volume": {"volume", "成交量"},
}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (f *CSVFetcher) Path(symbol string, g model.Granularity) string {
	return filepath.Join(f.Dir, fmt.Sprintf("%s_%s.csv", symbol, g))
}

func (f *CSVFetcher) FetchBars(_ context.Context, symbol string, g model.Granularity) ([]model.Bar, error) {
	file, err := os.Open(f.Path(symbol, g))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no file for %s %s", ErrUnavailable, symbol, g)
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return f.parse(symbol, file)
}

func (f *CSVFetcher) parse(symbol string, r io.Reader) ([]model.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s csv is empty", ErrUnavailable, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrSchema, symbol, line, err)
		}
		bar, err := f.parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrSchema, symbol, line, err)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s csv has no rows", ErrUnavailable, symbol)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make(map[string]int, len(csvColumns))
	for field, aliases := range csvColumns {
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				cols[field] = i
				break
			}
		}
		if _, ok := cols[field]; !ok && field != "volume" {
			return nil, fmt.Errorf("%w: missing %q column", ErrSchema, field)
		}
	}
	return cols, nil
}

func (f *CSVFetcher) parseRecord(rec []string, cols map[string]int) (model.Bar, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	ts, err := f.parseTime(get("time"))
	if err != nil {
		return model.Bar{}, err
	}
	bar := model.Bar{Time: ts}
	for _, fv := range []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}, {"close", &bar.Close},
	} {
		v, err := strconv.ParseFloat(get(fv.name), 64)
		if err != nil {
			return model.Bar{}, fmt.Errorf("%s: %v", fv.name, err)
		}
		*fv.dst = v
	}
	if s := get("volume"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			bar.Volume = v
		}
	}
	return bar, nil
}

func (f *CSVFetcher) parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).In(f.Location), nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, f.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}
