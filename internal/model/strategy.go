package model

import (
	"fmt"
	"strings"
)

// StrategyTag selects the spread combination formula.
type StrategyTag string

const (
	Butterfly StrategyTag = "butterfly"
	Condor    StrategyTag = "condor"
)

// ParseStrategyTag accepts the tag case-insensitively.
func ParseStrategyTag(s string) (StrategyTag, error) {
	switch StrategyTag(strings.ToLower(strings.TrimSpace(s))) {
	case Butterfly:
		return Butterfly, nil
	case Condor:
		return Condor, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// StrategyConfig is a strategy tag plus its ordered leg symbols.
type StrategyConfig struct {
	Tag  StrategyTag
	Legs []string
}

// Key identifies one memoizable invocation.
type Key struct {
	Strategy    StrategyTag
	Legs        []string
	Granularity Granularity
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Strategy, strings.Join(k.Legs, ","), k.Granularity)
}

// SplitLegs parses a comma-separated leg list, trimming blanks around each symbol.
func SplitLegs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	legs := strings.Split(s, ",")
	for i, l := range legs {
		legs[i] = strings.TrimSpace(l)
	}
	return legs
}
