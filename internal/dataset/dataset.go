// Package dataset holds the immutable in-memory record set built once at
// startup, and the filter engine that scopes it per request. Nothing here
// mutates records; every view is recomputed from a filtered copy of the
// slice header, so the dataset is safe to share across requests.
package dataset

import (
	"sort"

	"github.com/rmenezes/aguaviva/internal/models"
)

type Dataset struct {
	records []models.SampleRecord
	options Options
}

// Options are the distinct filter values present in the full record set.
// They are computed once and never shrink as filters are applied.
type Options struct {
	Years         []int              `json:"years"`
	Months        []int              `json:"months"`
	Neighborhoods []string           `json:"neighborhoods"`
	Parameters    []models.Parameter `json:"parameters"`
}

func New(records []models.SampleRecord) *Dataset {
	return &Dataset{
		records: records,
		options: buildOptions(records),
	}
}

func (d *Dataset) Len() int { return len(d.records) }

// Records returns the full unfiltered record set. Callers must not mutate it.
func (d *Dataset) Records() []models.SampleRecord { return d.records }

func (d *Dataset) Options() Options { return d.options }

// Filter returns the records matching every active criterion, preserving
// the dataset's load order. A selection matching nothing returns an empty
// (non-nil) slice; unknown filter values are not an error, they simply
// match no records.
func (d *Dataset) Filter(sel models.FilterSelection) []models.SampleRecord {
	if sel == (models.FilterSelection{}) {
		return d.records
	}
	matched := make([]models.SampleRecord, 0, len(d.records))
	for _, r := range d.records {
		if sel.Matches(r) {
			matched = append(matched, r)
		}
	}
	return matched
}

func buildOptions(records []models.SampleRecord) Options {
	years := make(map[int]bool)
	months := make(map[int]bool)
	neighborhoods := make(map[string]bool)
	parameters := make(map[models.Parameter]bool)

	for _, r := range records {
		years[r.Year] = true
		months[r.Month] = true
		neighborhoods[r.Neighborhood] = true
		parameters[r.Parameter] = true
	}

	opts := Options{
		Years:         make([]int, 0, len(years)),
		Months:        make([]int, 0, len(months)),
		Neighborhoods: make([]string, 0, len(neighborhoods)),
		Parameters:    make([]models.Parameter, 0, len(parameters)),
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	for m := range months {
		opts.Months = append(opts.Months, m)
	}
	for n := range neighborhoods {
		opts.Neighborhoods = append(opts.Neighborhoods, n)
	}
	for p := range parameters {
		opts.Parameters = append(opts.Parameters, p)
	}

	sort.Ints(opts.Years)
	sort.Ints(opts.Months)
	sort.Strings(opts.Neighborhoods)
	sort.Slice(opts.Parameters, func(i, j int) bool { return opts.Parameters[i] < opts.Parameters[j] })

	return opts
}
