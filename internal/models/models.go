package models

import "database/sql"

// Parameter is the analyzed water-quality parameter, using the exact labels
// that appear in the SISAGUA export.
type Parameter string

const (
	ParamEColi          Parameter = "Escherichia coli"
	ParamTotalColiforms Parameter = "Coliformes totais"
	ParamTurbidity      Parameter = "Turbidez (uT)"
	ParamChlorine       Parameter = "Cloro residual livre (mg/L)"
	ParamFluoride       Parameter = "Fluoreto (mg/L)"
)

// TrackedParameters is the fixed set of parameters the dashboard reports on.
// Anything else in the source data falls into an open "other" bucket: it is
// kept in the record set and counted in totals, but gets no dedicated chart.
var TrackedParameters = []Parameter{
	ParamEColi,
	ParamTotalColiforms,
	ParamTurbidity,
	ParamChlorine,
	ParamFluoride,
}

// NumericParameters carry a measured value and feed the mean-value series.
var NumericParameters = []Parameter{
	ParamTurbidity,
	ParamChlorine,
	ParamFluoride,
}

// MicrobiologicalParameters are presence/absence organisms.
var MicrobiologicalParameters = []Parameter{
	ParamEColi,
	ParamTotalColiforms,
}

func (p Parameter) Tracked() bool {
	for _, t := range TrackedParameters {
		if p == t {
			return true
		}
	}
	return false
}

func (p Parameter) Numeric() bool {
	for _, n := range NumericParameters {
		if p == n {
			return true
		}
	}
	return false
}

func (p Parameter) Microbiological() bool {
	return p == ParamEColi || p == ParamTotalColiforms
}

// UnknownNeighborhood is the label assigned when the source row has no
// neighborhood. Records still participate in every non-neighborhood view.
const UnknownNeighborhood = "unknown"

// SampleRecord is one parameter reading from a collection event. A single
// collection (one visit to one point) yields one record per parameter
// analyzed, all sharing CollectionID. Records are immutable after ingest.
type SampleRecord struct {
	ID              int64
	SourceID        string // row id from the SISAGUA export, if present
	CollectionID    string
	Year            int
	Month           int
	Neighborhood    string
	CollectionPoint string
	CollectedAt     string // source collection date, YYYY-MM-DD
	Parameter       Parameter
	RawResult       string
	Unit            string
	NumericValue    sql.NullFloat64 // numeric parameters only
	Presence        sql.NullBool    // microbiological parameters only
	Compliant       bool            // resolved against standards at ingest
	Latitude        sql.NullFloat64
	Longitude       sql.NullFloat64
}

// FilterSelection restricts the record set for a view request. Zero values
// mean "no restriction on this dimension". All active criteria are ANDed.
type FilterSelection struct {
	Year         int       `json:"year,omitempty"`
	Month        int       `json:"month,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	Parameter    Parameter `json:"parameter,omitempty"`
}

// Matches reports whether the record passes every active criterion.
func (f FilterSelection) Matches(r SampleRecord) bool {
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	if f.Month != 0 && r.Month != f.Month {
		return false
	}
	if f.Neighborhood != "" && r.Neighborhood != f.Neighborhood {
		return false
	}
	if f.Parameter != "" && r.Parameter != f.Parameter {
		return false
	}
	return true
}
