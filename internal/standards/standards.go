// Package standards holds the potability reference values from Portaria
// GM/MS Nº 888/2021 and resolves per-reading compliance at ingest time.
// Downstream aggregation never re-derives compliance from raw values.
package standards

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/rmenezes/aguaviva/internal/models"
)

type LimitKind int

const (
	// Absence means the organism must not be detected.
	Absence LimitKind = iota
	// Maximum means the measured value must be <= Max.
	Maximum
	// Interval means the measured value must be within [Min, Max].
	Interval
)

type Limit struct {
	Kind LimitKind
	Min  float64
	Max  float64
}

var limits = map[models.Parameter]Limit{
	models.ParamEColi:          {Kind: Absence},
	models.ParamTotalColiforms: {Kind: Absence},
	models.ParamTurbidity:      {Kind: Maximum, Max: 5.0},
	models.ParamChlorine:       {Kind: Interval, Min: 0.2, Max: 5.0},
	models.ParamFluoride:       {Kind: Maximum, Max: 1.5},
}

// Lookup returns the reference limit for a parameter, if one is defined.
func Lookup(p models.Parameter) (Limit, bool) {
	l, ok := limits[p]
	return l, ok
}

const absentResult = "AUSENTE"

// Absent reports whether a raw microbiological result means "not detected".
func Absent(raw string) bool {
	return strings.ToUpper(strings.TrimSpace(raw)) == absentResult
}

// ParseNumeric parses a raw result string as a decimal, accepting the
// Brazilian comma decimal separator used throughout SISAGUA exports.
func ParseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Evaluate resolves compliance for one reading. Parameters without a defined
// reference limit are treated as non-compliant, as are numeric readings
// whose value cannot be determined from either the numeric column or the
// raw result string.
func Evaluate(p models.Parameter, raw string, numeric sql.NullFloat64) bool {
	ref, ok := limits[p]
	if !ok {
		return false
	}

	switch ref.Kind {
	case Absence:
		return Absent(raw)
	case Maximum, Interval:
		value := numeric.Float64
		if !numeric.Valid {
			parsed, ok := ParseNumeric(raw)
			if !ok {
				return false
			}
			value = parsed
		}
		if ref.Kind == Maximum {
			return value <= ref.Max
		}
		return value >= ref.Min && value <= ref.Max
	}
	return false
}
