package store

import (
	"database/sql"
	"math"
)

// nullableFloat maps NaN to NULL. SQLite would do the same silently; doing
// it here keeps the round trip explicit.
func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// floatFromNull is the inverse of nullableFloat.
func floatFromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
