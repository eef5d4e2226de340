// Package harness runs trajectory checks: a run's inputs plus assertions
// about the trajectory it produces.
//
// # Check Format
//
// Checks are defined in YAML files with the following structure:
//
//	name: boundary
//	description: "One day from the canonical boundary case"
//	params:
//	  beta: 0.5
//	  gamma: 0.5
//	  total_pop: 10
//	  infected: 1
//	  days: 1
//	include_initial: false
//	assertions:
//	  - type: conserved
//	  - type: length
//	    count: 1
//	  - type: at_day
//	    day: 1
//	    expect: { susceptible: 8.55, infected: 0.95, removed: 0.5 }
//
// Unknown fields are rejected, so a misspelled key fails loudly instead of
// silently skipping an assertion.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - conserved: every snapshot sums to N (tolerance, default 1e-9·N)
//   - length: the trajectory has exactly count snapshots
//   - at_day: the snapshot for day matches expect
//   - peak_day: infected peaks on day (earliest wins ties)
//   - final: the last snapshot matches expect
//   - monotonic: series moves only in direction (up or down)
//
// Comparisons without a tolerance are relative, at DefaultRelTolerance.
//
// # Golden Files
//
// RunWithGolden renders the trajectory as CSV and compares it byte for byte
// with testdata/golden/<name>.golden. The engine is deterministic, so any
// drift in the last digit is a real change.
package harness
