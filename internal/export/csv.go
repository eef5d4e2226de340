package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/roach88/sirsim/internal/sir"
)

// WriteCSV writes one "day, susceptible, infected, removed" line per step,
// in order, with no header.
//
// The ", " separator is not expressible with encoding/csv, which only
// supports a single-rune delimiter.
func WriteCSV(w io.Writer, steps []sir.Step) error {
	bw := bufio.NewWriter(w)
	for _, s := range steps {
		if _, err := fmt.Fprintf(bw, "%d, %s, %s, %s\n",
			s.Day,
			FormatFloat(s.Susceptible),
			FormatFloat(s.Infected),
			FormatFloat(s.Removed),
		); err != nil {
			return fmt.Errorf("write csv day %d: %w", s.Day, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes steps to base + ".csv", truncating any existing file.
// Returns the path written.
func WriteCSVFile(base string, steps []sir.Step) (string, error) {
	path := base + ".csv"
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, steps); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// FormatFloat renders v as the shortest decimal that round-trips, without
// exponent notation: 10 -> "10", 8.55 -> "8.55", 1e-7 -> "0.0000001".
// Non-finite values render as "inf", "-inf" and "NaN".
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// jsonStep mirrors sir.Step with floats pre-rendered, since encoding/json
// rejects NaN and Inf.
type jsonStep struct {
	Day         int             `json:"day"`
	Susceptible json.RawMessage `json:"susceptible"`
	Infected    json.RawMessage `json:"infected"`
	Removed     json.RawMessage `json:"removed"`
}

// WriteJSONL writes one JSON object per step. Non-finite values are
// written as null.
func WriteJSONL(w io.Writer, steps []sir.Step) error {
	enc := json.NewEncoder(w)
	for _, s := range steps {
		if err := enc.Encode(jsonStep{
			Day:         s.Day,
			Susceptible: jsonNumber(s.Susceptible),
			Infected:    jsonNumber(s.Infected),
			Removed:     jsonNumber(s.Removed),
		}); err != nil {
			return fmt.Errorf("write jsonl day %d: %w", s.Day, err)
		}
	}
	return nil
}

func jsonNumber(v float64) json.RawMessage {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.RawMessage("null")
	}
	return json.RawMessage(strconv.FormatFloat(v, 'g', -1, 64))
}
