// Package stats is the aggregation engine: pure functions from a (already
// filtered) record slice to the derived statistics the dashboard renders.
// Every function tolerates an empty input and reports missing denominators
// as an explicit no-data state instead of a misleading zero.
package stats

import (
	"encoding/json"
	"math"
)

// Percent is a percentage rounded to one decimal place, or no-data when the
// denominator was zero. It marshals to JSON null in the no-data state so
// payloads stay structurally complete without fake zeros.
type Percent struct {
	Value float64
	Valid bool
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Percent{}
		return nil
	}
	p.Valid = true
	return json.Unmarshal(b, &p.Value)
}

// Round1 rounds to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Ratio returns num/den as a rounded percentage. A denominator below one
// yields the no-data state, never a division error.
func Ratio(num, den int) Percent {
	if den < 1 {
		return Percent{}
	}
	return Percent{Value: Round1(float64(num) / float64(den) * 100), Valid: true}
}
