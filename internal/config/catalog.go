package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"SpreadScope/internal/model"
)

// defaultCommodities maps a contract code prefix to its display name.
var defaultCommodities = map[string]string{
	"SH": "烧碱",
	"SA": "纯碱",
	"FG": "玻璃",
}

var defaultPresets = []Preset{
	{Name: "烧碱 (SH)", Code: "SH", Strategy: string(model.Butterfly), Legs: []string{"SH2511", "SH2512", "SH2601"}},
	{Name: "纯碱 (SA)", Code: "SA", Strategy: string(model.Butterfly), Legs: []string{"SA2601", "SA2605", "SA2609"}},
	{Name: "玻璃 (FG)", Code: "FG", Strategy: string(model.Butterfly), Legs: []string{"FG2601", "FG2605", "FG2609"}},
}

// Catalog is the read-only lookup of commodity names and leg presets. It is
// built once at startup and shared by pointer.
type Catalog struct {
	commodities map[string]string
	presets     map[string]model.StrategyConfig
	names       map[string]string
	order       []string
}

// NewCatalog merges the built-in tables with configured overrides.
func NewCatalog(commodities map[string]string, presets []Preset) (*Catalog, error) {
	c := &Catalog{
		commodities: make(map[string]string),
		presets:     make(map[string]model.StrategyConfig),
		names:       make(map[string]string),
	}
	for k, v := range defaultCommodities {
		c.commodities[k] = v
	}
	for k, v := range commodities {
		c.commodities[strings.ToUpper(k)] = v
	}
	for _, p := range append(append([]Preset{}, defaultPresets...), presets...) {
		if err := c.addPreset(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) addPreset(p Preset) error {
	tag, err := model.ParseStrategyTag(lo.Ternary(p.Strategy == "", string(model.Butterfly), p.Strategy))
	if err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	code := strings.ToUpper(p.Code)
	if code == "" && len(p.Legs) > 0 {
		code = CommodityCode(p.Legs[0])
	}
	if _, seen := c.presets[code]; !seen {
		c.order = append(c.order, code)
	}
	c.presets[code] = model.StrategyConfig{Tag: tag, Legs: append([]string(nil), p.Legs...)}
	c.names[code] = p.Name
	return nil
}

// CommodityCode returns the upper-case letter prefix of a contract symbol.
func CommodityCode(symbol string) string {
	i := strings.IndexFunc(symbol, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		i = len(symbol)
	}
	if i > 2 {
		i = 2
	}
	return strings.ToUpper(symbol[:i])
}

// CommodityName returns the display name for a leg symbol, or its code.
func (c *Catalog) CommodityName(symbol string) string {
	code := CommodityCode(symbol)
	if name, ok := c.commodities[code]; ok {
		return name
	}
	return code
}

// Preset looks a preset up by commodity code or display name.
func (c *Catalog) Preset(key string) (model.StrategyConfig, bool) {
	if cfg, ok := c.presets[strings.ToUpper(key)]; ok {
		return copyConfig(cfg), true
	}
	for code, name := range c.names {
		if name == key {
			return copyConfig(c.presets[code]), true
		}
	}
	return model.StrategyConfig{}, false
}

// PresetInfo is a listing entry.
type PresetInfo struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Strategy model.StrategyTag `json:"strategy"`
	Legs     []string          `json:"legs"`
}

// Presets lists presets in registration order.
func (c *Catalog) Presets() []PresetInfo {
	return lo.Map(c.order, func(code string, _ int) PresetInfo {
		cfg := c.presets[code]
		return PresetInfo{Code: code, Name: c.names[code], Strategy: cfg.Tag, Legs: append([]string(nil), cfg.Legs...)}
	})
}

// Commodities returns a copy of the code to display name table.
func (c *Catalog) Commodities() map[string]string {
	return lo.Assign(c.commodities)
}

func copyConfig(cfg model.StrategyConfig) model.StrategyConfig {
	return model.StrategyConfig{Tag: cfg.Tag, Legs: append([]string(nil), cfg.Legs...)}
}
