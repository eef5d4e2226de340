package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sirsim/internal/scenario"
)

// Check defines a trajectory check: one run and the assertions it must
// satisfy.
type Check struct {
	// Name uniquely identifies this check. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this check validates.
	Description string `yaml:"description"`

	// Params are the run inputs, with the same fields as a CUE scenario.
	Params scenario.Params `yaml:"params"`

	// IncludeInitial prepends the day 0 snapshot to the trajectory the
	// assertions see.
	IncludeInitial bool `yaml:"include_initial,omitempty"`

	// Assertions validate the trajectory.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a trajectory.
type Assertion struct {
	// Type specifies the assertion type:
	// - "conserved": every snapshot sums to N within Tolerance
	// - "length": the trajectory has exactly Count snapshots
	// - "at_day": the snapshot for Day matches Expect
	// - "peak_day": infected peaks on Day
	// - "final": the last snapshot matches Expect
	// - "monotonic": Series never moves against Direction
	Type string `yaml:"type"`

	// Tolerance is an absolute bound (conserved, at_day, final).
	// When omitted, conserved uses 1e-9·N and comparisons are relative 1e-9.
	Tolerance *float64 `yaml:"tolerance,omitempty"`

	// Count is the expected number of snapshots (length).
	Count *int `yaml:"count,omitempty"`

	// Day selects the snapshot (at_day) or the expected peak (peak_day).
	Day *int `yaml:"day,omitempty"`

	// Expect holds compartment values to compare (at_day, final).
	// Only the fields given are checked.
	Expect *Expected `yaml:"expect,omitempty"`

	// Series is one of susceptible, infected, removed, total_cases (monotonic).
	Series string `yaml:"series,omitempty"`

	// Direction is "up" (non-decreasing) or "down" (non-increasing) (monotonic).
	Direction string `yaml:"direction,omitempty"`
}

// Expected compartment values. Nil fields are not compared.
type Expected struct {
	Susceptible *float64 `yaml:"susceptible,omitempty"`
	Infected    *float64 `yaml:"infected,omitempty"`
	Removed     *float64 `yaml:"removed,omitempty"`
}

// Assertion type constants.
const (
	AssertConserved = "conserved"
	AssertLength    = "length"
	AssertAtDay     = "at_day"
	AssertPeakDay   = "peak_day"
	AssertFinal     = "final"
	AssertMonotonic = "monotonic"
)

// Series names for monotonic assertions.
const (
	SeriesSusceptible = "susceptible"
	SeriesInfected    = "infected"
	SeriesRemoved     = "removed"
	SeriesTotalCases  = "total_cases"
)

// LoadCheck reads and parses a check YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadCheck(path string) (*Check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read check file: %w", err)
	}
	return ParseCheck(data)
}

// ParseCheck parses a check from YAML bytes.
func ParseCheck(data []byte) (*Check, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var c Check
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateCheck(&c); err != nil {
		return nil, fmt.Errorf("invalid check: %w", err)
	}
	return &c, nil
}

// FindChecks returns the .yaml and .yml files in dir whose base name
// matches the glob filter, sorted by path. An empty filter matches all.
func FindChecks(dir, filter string) ([]string, error) {
	if filter == "" {
		filter = "*"
	}
	if _, err := filepath.Match(filter, ""); err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checks directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if ok, _ := filepath.Match(filter, e.Name()); !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func validateCheck(c *Check) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}

	if len(c.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range c.Assertions {
		if err := validateAssertion(i, &c.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Tolerance != nil && *a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertConserved:
	case AssertLength:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for length", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for length", index)
		}
	case AssertAtDay:
		if a.Day == nil {
			return fmt.Errorf("assertions[%d]: day is required for at_day", index)
		}
		if a.Expect.empty() {
			return fmt.Errorf("assertions[%d]: expect is required for at_day", index)
		}
	case AssertPeakDay:
		if a.Day == nil {
			return fmt.Errorf("assertions[%d]: day is required for peak_day", index)
		}
	case AssertFinal:
		if a.Expect.empty() {
			return fmt.Errorf("assertions[%d]: expect is required for final", index)
		}
	case AssertMonotonic:
		switch a.Series {
		case SeriesSusceptible, SeriesInfected, SeriesRemoved, SeriesTotalCases:
		default:
			return fmt.Errorf("assertions[%d]: unknown series %q for monotonic", index, a.Series)
		}
		if a.Direction != "up" && a.Direction != "down" {
			return fmt.Errorf("assertions[%d]: direction must be up or down, got %q", index, a.Direction)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func (e *Expected) empty() bool {
	return e == nil || (e.Susceptible == nil && e.Infected == nil && e.Removed == nil)
}
