package stats

import (
	"math"
	"sort"

	"github.com/rmenezes/aguaviva/internal/models"
)

// MonthKey is an explicit (year, month) grouping key; time series are sorted
// by it chronologically, never by insertion order.
type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

func sortedKeys(set map[MonthKey]bool) []MonthKey {
	keys := make([]MonthKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

func monthKeys(records []models.SampleRecord) []MonthKey {
	set := make(map[MonthKey]bool)
	for _, r := range records {
		set[MonthKey{Year: r.Year, Month: r.Month}] = true
	}
	return sortedKeys(set)
}

// MonthSpan returns the contiguous month range covered by the given year in
// the record set (min observed month through max). It is computed against
// the full unfiltered set so a filtered view can show explicit zero months
// inside the year's known range. Returns nil when the year has no data.
func MonthSpan(records []models.SampleRecord, year int) []MonthKey {
	lo, hi := 0, 0
	for _, r := range records {
		if r.Year != year {
			continue
		}
		if lo == 0 || r.Month < lo {
			lo = r.Month
		}
		if r.Month > hi {
			hi = r.Month
		}
	}
	if lo == 0 {
		return nil
	}
	span := make([]MonthKey, 0, hi-lo+1)
	for m := lo; m <= hi; m++ {
		span = append(span, MonthKey{Year: year, Month: m})
	}
	return span
}

// MonthBucket is the distinct-collection volume for one month.
type MonthBucket struct {
	Year        int `json:"year"`
	Month       int `json:"month"`
	Collections int `json:"collections"`
}

// MonthlyDistribution counts distinct collections per month, ordered
// chronologically. Months from span with no matching records are emitted
// with a zero count; months outside span with no records are omitted.
func MonthlyDistribution(records []models.SampleRecord, span []MonthKey) []MonthBucket {
	collections := make(map[MonthKey]map[string]bool)
	keySet := make(map[MonthKey]bool)
	for _, r := range records {
		k := MonthKey{Year: r.Year, Month: r.Month}
		keySet[k] = true
		if collections[k] == nil {
			collections[k] = make(map[string]bool)
		}
		collections[k][r.CollectionID] = true
	}
	for _, k := range span {
		keySet[k] = true
	}

	out := make([]MonthBucket, 0, len(keySet))
	for _, k := range sortedKeys(keySet) {
		out = append(out, MonthBucket{
			Year:        k.Year,
			Month:       k.Month,
			Collections: len(collections[k]),
		})
	}
	return out
}

// TrendPoint is the per-reading conformity rate for one month.
type TrendPoint struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Readings   int     `json:"readings"`
	Conformity Percent `json:"conformity_pct"`
}

// MonthlyConformity is the overall conformity trend across the months
// present in the set, chronological.
func MonthlyConformity(records []models.SampleRecord) []TrendPoint {
	type acc struct{ total, compliant int }
	byMonth := make(map[MonthKey]*acc)
	for _, r := range records {
		k := MonthKey{Year: r.Year, Month: r.Month}
		a := byMonth[k]
		if a == nil {
			a = &acc{}
			byMonth[k] = a
		}
		a.total++
		if r.Compliant {
			a.compliant++
		}
	}

	out := make([]TrendPoint, 0, len(byMonth))
	for _, k := range monthKeys(records) {
		a := byMonth[k]
		out = append(out, TrendPoint{
			Year:       k.Year,
			Month:      k.Month,
			Readings:   a.total,
			Conformity: Ratio(a.compliant, a.total),
		})
	}
	return out
}

// TrendSeries is one tracked parameter's monthly conformity.
type TrendSeries struct {
	Parameter models.Parameter `json:"parameter"`
	Points    []TrendPoint     `json:"points"`
}

// MonthlyConformityByParameter emits one series per tracked parameter,
// aligned on the months present in the set: a month where the parameter has
// no readings carries the no-data marker so series stay comparable.
func MonthlyConformityByParameter(records []models.SampleRecord) []TrendSeries {
	type acc struct{ total, compliant int }
	byParam := make(map[models.Parameter]map[MonthKey]*acc)
	for _, r := range records {
		if !r.Parameter.Tracked() {
			continue
		}
		k := MonthKey{Year: r.Year, Month: r.Month}
		if byParam[r.Parameter] == nil {
			byParam[r.Parameter] = make(map[MonthKey]*acc)
		}
		a := byParam[r.Parameter][k]
		if a == nil {
			a = &acc{}
			byParam[r.Parameter][k] = a
		}
		a.total++
		if r.Compliant {
			a.compliant++
		}
	}

	keys := monthKeys(records)
	out := make([]TrendSeries, 0, len(models.TrackedParameters))
	for _, p := range models.TrackedParameters {
		series := TrendSeries{Parameter: p, Points: make([]TrendPoint, 0, len(keys))}
		for _, k := range keys {
			pt := TrendPoint{Year: k.Year, Month: k.Month}
			if a := byParam[p][k]; a != nil {
				pt.Readings = a.total
				pt.Conformity = Ratio(a.compliant, a.total)
			}
			series.Points = append(series.Points, pt)
		}
		out = append(out, series)
	}
	return out
}

// MeanPoint is the arithmetic mean of present numeric values for one month.
type MeanPoint struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Observations int     `json:"observations"`
	Mean         float64 `json:"mean"`
}

// MeanSeries is one numeric parameter's monthly mean-value trend.
type MeanSeries struct {
	Parameter models.Parameter `json:"parameter"`
	Unit      string           `json:"unit,omitempty"`
	Points    []MeanPoint      `json:"points"`
}

// MonthlyMeans averages present numeric values per (month, parameter).
// Readings without a numeric value are excluded from the mean, never
// treated as zero; months with no numeric observations for a parameter are
// omitted from that parameter's series rather than reported as mean 0.
func MonthlyMeans(records []models.SampleRecord) []MeanSeries {
	type acc struct {
		sum   float64
		count int
		unit  string
	}
	byParam := make(map[models.Parameter]map[MonthKey]*acc)
	for _, r := range records {
		if !r.Parameter.Numeric() || !r.NumericValue.Valid {
			continue
		}
		k := MonthKey{Year: r.Year, Month: r.Month}
		if byParam[r.Parameter] == nil {
			byParam[r.Parameter] = make(map[MonthKey]*acc)
		}
		a := byParam[r.Parameter][k]
		if a == nil {
			a = &acc{}
			byParam[r.Parameter][k] = a
		}
		a.sum += r.NumericValue.Float64
		a.count++
		if a.unit == "" {
			a.unit = r.Unit
		}
	}

	out := make([]MeanSeries, 0, len(models.NumericParameters))
	for _, p := range models.NumericParameters {
		buckets := byParam[p]
		if len(buckets) == 0 {
			continue
		}
		keySet := make(map[MonthKey]bool, len(buckets))
		unit := ""
		for k, a := range buckets {
			keySet[k] = true
			if unit == "" {
				unit = a.unit
			}
		}
		series := MeanSeries{Parameter: p, Unit: unit, Points: make([]MeanPoint, 0, len(buckets))}
		for _, k := range sortedKeys(keySet) {
			a := buckets[k]
			series.Points = append(series.Points, MeanPoint{
				Year:         k.Year,
				Month:        k.Month,
				Observations: a.count,
				Mean:         math.Round(a.sum/float64(a.count)*100) / 100,
			})
		}
		out = append(out, series)
	}
	return out
}

// PresencePoint is the detection rate for one month. Readings lacking a
// presence flag are excluded from the denominator.
type PresencePoint struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Readings int     `json:"readings"`
	Presence Percent `json:"presence_pct"`
}

// PresenceSeries is one microbiological parameter's monthly detection rate.
type PresenceSeries struct {
	Parameter models.Parameter `json:"parameter"`
	Points    []PresencePoint  `json:"points"`
}

// MonthlyPresence emits one series per tracked microbiological parameter,
// aligned on the months present in the set.
func MonthlyPresence(records []models.SampleRecord) []PresenceSeries {
	type acc struct{ flagged, detected int }
	byParam := make(map[models.Parameter]map[MonthKey]*acc)
	for _, r := range records {
		if !r.Parameter.Microbiological() || !r.Presence.Valid {
			continue
		}
		k := MonthKey{Year: r.Year, Month: r.Month}
		if byParam[r.Parameter] == nil {
			byParam[r.Parameter] = make(map[MonthKey]*acc)
		}
		a := byParam[r.Parameter][k]
		if a == nil {
			a = &acc{}
			byParam[r.Parameter][k] = a
		}
		a.flagged++
		if r.Presence.Bool {
			a.detected++
		}
	}

	keys := monthKeys(records)
	out := make([]PresenceSeries, 0, len(models.MicrobiologicalParameters))
	for _, p := range models.MicrobiologicalParameters {
		series := PresenceSeries{Parameter: p, Points: make([]PresencePoint, 0, len(keys))}
		for _, k := range keys {
			pt := PresencePoint{Year: k.Year, Month: k.Month}
			if a := byParam[p][k]; a != nil {
				pt.Readings = a.flagged
				pt.Presence = Ratio(a.detected, a.flagged)
			}
			series.Points = append(series.Points, pt)
		}
		out = append(out, series)
	}
	return out
}

// ParameterPresence is one organism's detection rate within a neighborhood.
type ParameterPresence struct {
	Parameter models.Parameter `json:"parameter"`
	Readings  int              `json:"readings"`
	Presence  Percent          `json:"presence_pct"`
}

// NeighborhoodPresence is the stacked microbiological breakdown for one
// neighborhood.
type NeighborhoodPresence struct {
	Neighborhood string              `json:"neighborhood"`
	Rates        []ParameterPresence `json:"rates"`
}

// PresenceByNeighborhood groups detection rates by neighborhood, sorted
// ascending by name, with one aligned entry per tracked microbiological
// parameter for stacked-chart rendering.
func PresenceByNeighborhood(records []models.SampleRecord) []NeighborhoodPresence {
	type acc struct{ flagged, detected int }
	byHood := make(map[string]map[models.Parameter]*acc)
	for _, r := range records {
		if !r.Parameter.Microbiological() || !r.Presence.Valid {
			continue
		}
		if byHood[r.Neighborhood] == nil {
			byHood[r.Neighborhood] = make(map[models.Parameter]*acc)
		}
		a := byHood[r.Neighborhood][r.Parameter]
		if a == nil {
			a = &acc{}
			byHood[r.Neighborhood][r.Parameter] = a
		}
		a.flagged++
		if r.Presence.Bool {
			a.detected++
		}
	}

	names := make([]string, 0, len(byHood))
	for name := range byHood {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]NeighborhoodPresence, 0, len(names))
	for _, name := range names {
		np := NeighborhoodPresence{
			Neighborhood: name,
			Rates:        make([]ParameterPresence, 0, len(models.MicrobiologicalParameters)),
		}
		for _, p := range models.MicrobiologicalParameters {
			pp := ParameterPresence{Parameter: p}
			if a := byHood[name][p]; a != nil {
				pp.Readings = a.flagged
				pp.Presence = Ratio(a.detected, a.flagged)
			}
			np.Rates = append(np.Rates, pp)
		}
		out = append(out, np)
	}
	return out
}
