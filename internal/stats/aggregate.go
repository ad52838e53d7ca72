package stats

import (
	"sort"

	"github.com/rmenezes/aguaviva/internal/models"
)

// Overall are the headline numbers for the current filter selection.
// SampleCount is distinct collection events, not raw readings: one visit to
// one point yields several parameter rows sharing a collection id.
type Overall struct {
	SampleCount       int     `json:"sample_count"`
	ReadingCount      int     `json:"reading_count"`
	NeighborhoodCount int     `json:"neighborhood_count"`
	Conformity        Percent `json:"conformity_pct"`
	NonConformity     Percent `json:"non_conformity_pct"`
}

// ComputeOverall treats a collection as conformant only when every one of
// its readings is compliant.
func ComputeOverall(records []models.SampleRecord) Overall {
	collections := make(map[string]bool) // id -> all readings compliant so far
	neighborhoods := make(map[string]bool)

	for _, r := range records {
		neighborhoods[r.Neighborhood] = true
		if prev, seen := collections[r.CollectionID]; seen {
			collections[r.CollectionID] = prev && r.Compliant
		} else {
			collections[r.CollectionID] = r.Compliant
		}
	}

	conformant := 0
	for _, ok := range collections {
		if ok {
			conformant++
		}
	}

	o := Overall{
		SampleCount:       len(collections),
		ReadingCount:      len(records),
		NeighborhoodCount: len(neighborhoods),
		Conformity:        Ratio(conformant, len(collections)),
	}
	if o.Conformity.Valid {
		o.NonConformity = Percent{Value: Round1(100 - o.Conformity.Value), Valid: true}
	}
	return o
}

// ParameterConformity is the per-reading conformity rate for one parameter.
type ParameterConformity struct {
	Parameter  models.Parameter `json:"parameter"`
	Readings   int              `json:"readings"`
	Conformity Percent          `json:"conformity_pct"`
}

// PerParameterConformity reports every tracked parameter in its fixed
// enumeration order. Parameters with zero readings in the set carry the
// no-data marker rather than disappearing from the payload.
func PerParameterConformity(records []models.SampleRecord) []ParameterConformity {
	type acc struct{ total, compliant int }
	byParam := make(map[models.Parameter]*acc)
	for _, r := range records {
		a := byParam[r.Parameter]
		if a == nil {
			a = &acc{}
			byParam[r.Parameter] = a
		}
		a.total++
		if r.Compliant {
			a.compliant++
		}
	}

	out := make([]ParameterConformity, 0, len(models.TrackedParameters))
	for _, p := range models.TrackedParameters {
		pc := ParameterConformity{Parameter: p}
		if a, ok := byParam[p]; ok {
			pc.Readings = a.total
			pc.Conformity = Ratio(a.compliant, a.total)
		}
		out = append(out, pc)
	}
	return out
}

// NeighborhoodRank is one neighborhood's reading volume and conformity.
type NeighborhoodRank struct {
	Neighborhood string  `json:"neighborhood"`
	Readings     int     `json:"readings"`
	Conformity   Percent `json:"conformity_pct"`
}

func rankNeighborhoods(records []models.SampleRecord) []NeighborhoodRank {
	type acc struct{ total, compliant int }
	byHood := make(map[string]*acc)
	for _, r := range records {
		a := byHood[r.Neighborhood]
		if a == nil {
			a = &acc{}
			byHood[r.Neighborhood] = a
		}
		a.total++
		if r.Compliant {
			a.compliant++
		}
	}

	out := make([]NeighborhoodRank, 0, len(byHood))
	for name, a := range byHood {
		out = append(out, NeighborhoodRank{
			Neighborhood: name,
			Readings:     a.total,
			Conformity:   Ratio(a.compliant, a.total),
		})
	}
	return out
}

// RankNeighborhoodsByVolume sorts descending by reading count; ties break
// ascending by name so output order is a contract, not map iteration luck.
func RankNeighborhoodsByVolume(records []models.SampleRecord) []NeighborhoodRank {
	ranks := rankNeighborhoods(records)
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Readings != ranks[j].Readings {
			return ranks[i].Readings > ranks[j].Readings
		}
		return ranks[i].Neighborhood < ranks[j].Neighborhood
	})
	return ranks
}

// RankNeighborhoodsByConformity sorts ascending (worst first) when asc is
// true, descending otherwise; ties break ascending by name.
func RankNeighborhoodsByConformity(records []models.SampleRecord, asc bool) []NeighborhoodRank {
	ranks := rankNeighborhoods(records)
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Conformity.Value != ranks[j].Conformity.Value {
			if asc {
				return ranks[i].Conformity.Value < ranks[j].Conformity.Value
			}
			return ranks[i].Conformity.Value > ranks[j].Conformity.Value
		}
		return ranks[i].Neighborhood < ranks[j].Neighborhood
	})
	return ranks
}

// NeighborhoodDetail extends the rank with per-parameter conformity for the
// stacked neighborhood chart.
type NeighborhoodDetail struct {
	Neighborhood string                `json:"neighborhood"`
	Readings     int                   `json:"readings"`
	Conformity   Percent               `json:"conformity_pct"`
	Parameters   []ParameterConformity `json:"parameters"`
}

// NeighborhoodDetails is sorted ascending by neighborhood name.
func NeighborhoodDetails(records []models.SampleRecord) []NeighborhoodDetail {
	byHood := make(map[string][]models.SampleRecord)
	for _, r := range records {
		byHood[r.Neighborhood] = append(byHood[r.Neighborhood], r)
	}

	names := make([]string, 0, len(byHood))
	for name := range byHood {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]NeighborhoodDetail, 0, len(names))
	for _, name := range names {
		subset := byHood[name]
		compliant := 0
		for _, r := range subset {
			if r.Compliant {
				compliant++
			}
		}
		out = append(out, NeighborhoodDetail{
			Neighborhood: name,
			Readings:     len(subset),
			Conformity:   Ratio(compliant, len(subset)),
			Parameters:   PerParameterConformity(subset),
		})
	}
	return out
}

// Points ranked below this many readings are flagged low-confidence: the
// percentage is still reported, but a consumer should not shame a point
// over a single bad reading.
const minPointReadings = 5

// CollectionPointRank is one physical collection point's conformity.
type CollectionPointRank struct {
	CollectionPoint string  `json:"collection_point"`
	Readings        int     `json:"readings"`
	Conformity      Percent `json:"conformity_pct"`
	LowConfidence   bool    `json:"low_confidence"`
}

// WorstPoints ranks collection points ascending by conformity (worst first),
// ties broken ascending by name, and returns the first n (n <= 0 means all).
// Records without a collection point label are grouped under "unknown".
func WorstPoints(records []models.SampleRecord, n int) []CollectionPointRank {
	type acc struct{ total, compliant int }
	byPoint := make(map[string]*acc)
	for _, r := range records {
		point := r.CollectionPoint
		if point == "" {
			point = models.UnknownNeighborhood
		}
		a := byPoint[point]
		if a == nil {
			a = &acc{}
			byPoint[point] = a
		}
		a.total++
		if r.Compliant {
			a.compliant++
		}
	}

	out := make([]CollectionPointRank, 0, len(byPoint))
	for point, a := range byPoint {
		out = append(out, CollectionPointRank{
			CollectionPoint: point,
			Readings:        a.total,
			Conformity:      Ratio(a.compliant, a.total),
			LowConfidence:   a.total < minPointReadings,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Conformity.Value != out[j].Conformity.Value {
			return out[i].Conformity.Value < out[j].Conformity.Value
		}
		return out[i].CollectionPoint < out[j].CollectionPoint
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
