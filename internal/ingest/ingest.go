package ingest

import (
	"fmt"
	"io"
	"log"

	"github.com/rmenezes/aguaviva/internal/metrics"
	"github.com/rmenezes/aguaviva/internal/store"
)

type Summary struct {
	Parsed   int
	Inserted int
	Skipped  map[string]int
}

// Run parses a CSV stream and writes the records to the store.
func Run(st *store.Store, r io.Reader) (*Summary, error) {
	parsed, err := ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	for reason, n := range parsed.Skipped {
		log.Printf("ingest: skipped %d rows: %s", n, reason)
		metrics.SamplesSkipped.WithLabelValues(reason).Add(float64(n))
	}

	inserted, err := st.InsertSamples(parsed.Records)
	if err != nil {
		return nil, fmt.Errorf("insert samples: %w", err)
	}
	metrics.SamplesIngested.Add(float64(inserted))

	return &Summary{
		Parsed:   len(parsed.Records),
		Inserted: inserted,
		Skipped:  parsed.Skipped,
	}, nil
}
