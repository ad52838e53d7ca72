// Package view composes aggregation outputs and filter-option metadata into
// the payload the presentation layer consumes. Assembly is a pure function
// of (full record set, filter selection); identical inputs produce
// byte-identical payloads.
package view

import (
	"github.com/rmenezes/aguaviva/internal/dataset"
	"github.com/rmenezes/aguaviva/internal/models"
	"github.com/rmenezes/aguaviva/internal/stats"
)

// WorstPointsLimit is the default size of the worst-collection-points view.
const WorstPointsLimit = 10

// Payload carries every derived view for one filter selection. All slices
// are non-nil even on an empty match, so consumers never special-case
// missing keys.
type Payload struct {
	Filters models.FilterSelection `json:"filters"`
	Options dataset.Options        `json:"options"`

	Overall    stats.Overall               `json:"overall"`
	Parameters []stats.ParameterConformity `json:"parameters"`

	NeighborhoodsByVolume     []stats.NeighborhoodRank   `json:"neighborhoods_by_volume"`
	NeighborhoodsByConformity []stats.NeighborhoodRank   `json:"neighborhoods_by_conformity"`
	Neighborhoods             []stats.NeighborhoodDetail `json:"neighborhoods"`
	WorstCollectionPoints     []stats.CollectionPointRank `json:"worst_collection_points"`

	MonthlyDistribution          []stats.MonthBucket    `json:"monthly_distribution"`
	MonthlyConformity            []stats.TrendPoint     `json:"monthly_conformity"`
	MonthlyConformityByParameter []stats.TrendSeries    `json:"monthly_conformity_by_parameter"`
	MonthlyMeans                 []stats.MeanSeries     `json:"monthly_means"`
	MonthlyPresence              []stats.PresenceSeries `json:"monthly_presence"`

	PresenceByNeighborhood []stats.NeighborhoodPresence `json:"presence_by_neighborhood"`
}

// Assemble filters the dataset and computes the full view bundle. Filter
// options always come from the unfiltered set, so controls never shrink as
// filters are applied.
func Assemble(ds *dataset.Dataset, sel models.FilterSelection) Payload {
	filtered := ds.Filter(sel)

	// Zero months are only meaningful inside a year's known range.
	var span []stats.MonthKey
	if sel.Year != 0 {
		span = stats.MonthSpan(ds.Records(), sel.Year)
	}

	return Payload{
		Filters: sel,
		Options: ds.Options(),

		Overall:    stats.ComputeOverall(filtered),
		Parameters: stats.PerParameterConformity(filtered),

		NeighborhoodsByVolume:     stats.RankNeighborhoodsByVolume(filtered),
		NeighborhoodsByConformity: stats.RankNeighborhoodsByConformity(filtered, true),
		Neighborhoods:             stats.NeighborhoodDetails(filtered),
		WorstCollectionPoints:     stats.WorstPoints(filtered, WorstPointsLimit),

		MonthlyDistribution:          stats.MonthlyDistribution(filtered, span),
		MonthlyConformity:            stats.MonthlyConformity(filtered),
		MonthlyConformityByParameter: stats.MonthlyConformityByParameter(filtered),
		MonthlyMeans:                 stats.MonthlyMeans(filtered),
		MonthlyPresence:              stats.MonthlyPresence(filtered),

		PresenceByNeighborhood: stats.PresenceByNeighborhood(filtered),
	}
}

// MapPoint is one geolocated reading for the map layer. Records without
// both coordinates never reach here but stay in every other aggregation.
type MapPoint struct {
	Latitude        float64          `json:"lat"`
	Longitude       float64          `json:"lon"`
	Compliant       bool             `json:"compliant"`
	Neighborhood    string           `json:"neighborhood"`
	CollectionPoint string           `json:"collection_point,omitempty"`
	CollectedAt     string           `json:"collected_at,omitempty"`
	Parameter       models.Parameter `json:"parameter"`
	Result          string           `json:"result,omitempty"`
	Unit            string           `json:"unit,omitempty"`
}

// MapPoints returns the filtered records that carry coordinates, in dataset
// order.
func MapPoints(ds *dataset.Dataset, sel models.FilterSelection) []MapPoint {
	filtered := ds.Filter(sel)
	points := make([]MapPoint, 0, len(filtered))
	for _, r := range filtered {
		if !r.Latitude.Valid || !r.Longitude.Valid {
			continue
		}
		points = append(points, MapPoint{
			Latitude:        r.Latitude.Float64,
			Longitude:       r.Longitude.Float64,
			Compliant:       r.Compliant,
			Neighborhood:    r.Neighborhood,
			CollectionPoint: r.CollectionPoint,
			CollectedAt:     r.CollectedAt,
			Parameter:       r.Parameter,
			Result:          r.RawResult,
			Unit:            r.Unit,
		})
	}
	return points
}
