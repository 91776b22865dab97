package dataprocessing

import (
	"errors"
	"fmt"
	"strings"

	"flightops/pkg/contracts/domain"
)

// ErrInvalidFleetMapping is returned when the fleet mapping fails validation.
var ErrInvalidFleetMapping = errors.New("invalid fleet mapping")

// ErrUnknownFleet is returned for a fleet the classifier cannot produce.
var ErrUnknownFleet = errors.New("unknown fleet")

// Default fleet tags.
const (
	FleetTrishul domain.FleetGroup = "Trishul"
	FleetKamet   domain.FleetGroup = "Kamet"
)

// FleetRule assigns Fleet to any vehicle whose lowercased name contains Keyword.
type FleetRule struct {
	Keyword string            `json:"keyword" yaml:"keyword"`
	Fleet   domain.FleetGroup `json:"fleet" yaml:"fleet"`
}

// FleetClassifier is an ordered vehicle-name mapping table. The first
// matching rule wins; unmatched names go to the fallback, or to
// domain.FleetUnclassified when no fallback is set.
type FleetClassifier struct {
	rules    []FleetRule
	fallback domain.FleetGroup
}

// NewFleetClassifier validates the mapping and builds a classifier.
func NewFleetClassifier(rules []FleetRule, fallback domain.FleetGroup) (*FleetClassifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: at least one rule is required", ErrInvalidFleetMapping)
	}

	seen := make(map[string]struct{}, len(rules))
	normalized := make([]FleetRule, 0, len(rules))
	for i, rule := range rules {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		fleet := domain.FleetGroup(strings.TrimSpace(string(rule.Fleet)))

		if keyword == "" {
			return nil, fmt.Errorf("%w: rule %d has an empty keyword", ErrInvalidFleetMapping, i)
		}
		if fleet == "" {
			return nil, fmt.Errorf("%w: rule %d (%s) has an empty fleet", ErrInvalidFleetMapping, i, keyword)
		}
		if fleet == domain.FleetUnclassified {
			return nil, fmt.Errorf("%w: fleet %q is reserved", ErrInvalidFleetMapping, fleet)
		}
		if _, dup := seen[keyword]; dup {
			return nil, fmt.Errorf("%w: duplicate keyword %q", ErrInvalidFleetMapping, keyword)
		}
		seen[keyword] = struct{}{}
		normalized = append(normalized, FleetRule{Keyword: keyword, Fleet: fleet})
	}

	fallback = domain.FleetGroup(strings.TrimSpace(string(fallback)))
	if fallback == "" {
		fallback = domain.FleetUnclassified
	}

	return &FleetClassifier{rules: normalized, fallback: fallback}, nil
}

// DefaultFleetClassifier maps "trishul" vehicles to Trishul and everything
// else to Kamet.
func DefaultFleetClassifier() *FleetClassifier {
	return &FleetClassifier{
		rules:    []FleetRule{{Keyword: "trishul", Fleet: FleetTrishul}},
		fallback: FleetKamet,
	}
}

// Classify returns the fleet for a vehicle name
func (c *FleetClassifier) Classify(vehicleName string) domain.FleetGroup {
	name := strings.ToLower(vehicleName)
	for _, rule := range c.rules {
		if strings.Contains(name, rule.Keyword) {
			return rule.Fleet
		}
	}
	return c.fallback
}

// Fleets lists every fleet the classifier can produce, in rule order with
// the fallback last.
func (c *FleetClassifier) Fleets() []domain.FleetGroup {
	fleets := make([]domain.FleetGroup, 0, len(c.rules)+1)
	seen := make(map[domain.FleetGroup]struct{}, len(c.rules)+1)
	for _, rule := range c.rules {
		if _, ok := seen[rule.Fleet]; !ok {
			seen[rule.Fleet] = struct{}{}
			fleets = append(fleets, rule.Fleet)
		}
	}
	if _, ok := seen[c.fallback]; !ok {
		fleets = append(fleets, c.fallback)
	}
	return fleets
}

// Knows reports whether fleet is one the classifier can produce
func (c *FleetClassifier) Knows(fleet domain.FleetGroup) bool {
	for _, f := range c.Fleets() {
		if f == fleet {
			return true
		}
	}
	return false
}
