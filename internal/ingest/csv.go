// Package ingest parses cleaned SISAGUA CSV exports into normalized sample
// records. Type coercion, date parsing, missing-field normalization and
// compliance resolution all happen here, before records reach the store;
// the aggregation engine downstream assumes clean input.
package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rmenezes/aguaviva/internal/models"
	"github.com/rmenezes/aguaviva/internal/standards"
)

// Skip reasons, reported per row so bad exports are diagnosable.
const (
	SkipNoParameter = "no_parameter"
	SkipNoDate      = "no_date"
	SkipShortRow    = "short_row"
)

type ParseResult struct {
	Records []models.SampleRecord
	Skipped map[string]int
}

func (p *ParseResult) skip(reason string) {
	if p.Skipped == nil {
		p.Skipped = make(map[string]int)
	}
	p.Skipped[reason]++
}

// ParseCSV reads a cleaned SISAGUA export. Columns are located by header
// name, so column order doesn't matter; unknown columns are ignored.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := &ParseResult{Skipped: make(map[string]int)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		parameter := models.Parameter(field(row, "parametro"))
		if parameter == "" {
			result.skip(SkipNoParameter)
			continue
		}

		collectedAt := normalizeDate(field(row, "data_da_coleta"))
		year, yearOK := parseInt(field(row, "ano"))
		month, monthOK := parseInt(field(row, "mes"))
		if !yearOK || !monthOK {
			// Fall back to the collection date; a record without a
			// resolvable year/month can't feed any view.
			y, m, ok := splitDate(collectedAt)
			if !ok {
				result.skip(SkipNoDate)
				continue
			}
			if !yearOK {
				year = y
			}
			if !monthOK {
				month = m
			}
		}

		neighborhood := field(row, "bairro")
		if neighborhood == "" {
			neighborhood = models.UnknownNeighborhood
		}

		rec := models.SampleRecord{
			SourceID:        field(row, "id"),
			Year:            year,
			Month:           month,
			Neighborhood:    neighborhood,
			CollectionPoint: field(row, "ponto_de_coleta"),
			CollectedAt:     collectedAt,
			Parameter:       parameter,
			RawResult:       field(row, "resultado"),
			Unit:            field(row, "unidade_de_medida"),
		}
		rec.CollectionID = collectionID(rec)

		if v, ok := standards.ParseNumeric(field(row, "resultado_numerico")); ok {
			rec.NumericValue = sql.NullFloat64{Float64: v, Valid: true}
		} else if parameter.Numeric() {
			if v, ok := standards.ParseNumeric(rec.RawResult); ok {
				rec.NumericValue = sql.NullFloat64{Float64: v, Valid: true}
			}
		}

		if parameter.Microbiological() && rec.RawResult != "" {
			rec.Presence = sql.NullBool{Bool: !standards.Absent(rec.RawResult), Valid: true}
		}

		rec.Compliant = standards.Evaluate(parameter, rec.RawResult, rec.NumericValue)

		if v, ok := parseFloat(field(row, "latitude")); ok {
			rec.Latitude = sql.NullFloat64{Float64: v, Valid: true}
		}
		if v, ok := parseFloat(field(row, "longitude")); ok {
			rec.Longitude = sql.NullFloat64{Float64: v, Valid: true}
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// collectionID identifies the physical sampling event. The clean export has
// an explicit sample number in some vintages; otherwise readings from one
// visit share collection point and date, which is what we key on.
func collectionID(r models.SampleRecord) string {
	if r.SourceID != "" && r.CollectionPoint == "" && r.CollectedAt == "" {
		return r.SourceID
	}
	return r.CollectionPoint + "|" + r.CollectedAt
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	// Years and months sometimes arrive as "2023.0" from upstream tooling.
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeDate accepts the two date shapes seen in exports (ISO and
// Brazilian day-first) and returns YYYY-MM-DD, or the input unchanged when
// it matches neither.
func normalizeDate(s string) string {
	if s == "" {
		return ""
	}
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	if len(s) >= 10 && s[2] == '/' && s[5] == '/' {
		return s[6:10] + "-" + s[3:5] + "-" + s[0:2]
	}
	return s
}

func splitDate(s string) (year, month int, ok bool) {
	if len(s) < 7 || s[4] != '-' {
		return 0, 0, false
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(s[5:7])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, m, true
}
