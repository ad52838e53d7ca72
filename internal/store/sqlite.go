// Package store persists normalized sample records in SQLite. The serving
// path reads the whole table once at startup; only ingestion writes.
package store

import (
	"database/sql"
	"fmt"

	"github.com/rmenezes/aguaviva/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertSample(r models.SampleRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO samples (source_id, collection_id, year, month, neighborhood, collection_point, collected_at, parameter, raw_result, unit, numeric_value, presence, compliant, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, parameter, source_id) DO NOTHING
	`, r.SourceID, r.CollectionID, r.Year, r.Month, r.Neighborhood, r.CollectionPoint, r.CollectedAt, string(r.Parameter), r.RawResult, r.Unit, r.NumericValue, r.Presence, r.Compliant, r.Latitude, r.Longitude)
	return err
}

// InsertSamples writes a batch in one transaction. Returns the number of
// rows actually inserted (re-ingested duplicates are skipped).
func (s *Store) InsertSamples(records []models.SampleRecord) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO samples (source_id, collection_id, year, month, neighborhood, collection_point, collected_at, parameter, raw_result, unit, numeric_value, presence, compliant, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, parameter, source_id) DO NOTHING
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.Exec(r.SourceID, r.CollectionID, r.Year, r.Month, r.Neighborhood, r.CollectionPoint, r.CollectedAt, string(r.Parameter), r.RawResult, r.Unit, r.NumericValue, r.Presence, r.Compliant, r.Latitude, r.Longitude)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert sample %s/%s: %w", r.CollectionID, r.Parameter, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// LoadSamples returns every sample record in a stable order (collection
// date, then insertion id). The caller treats the result as immutable.
func (s *Store) LoadSamples() ([]models.SampleRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, source_id, collection_id, year, month, neighborhood, collection_point, collected_at, parameter, raw_result, unit, numeric_value, presence, compliant, latitude, longitude
		FROM samples
		ORDER BY collected_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SampleRecord
	for rows.Next() {
		var r models.SampleRecord
		var parameter string
		if err := rows.Scan(&r.ID, &r.SourceID, &r.CollectionID, &r.Year, &r.Month, &r.Neighborhood, &r.CollectionPoint, &r.CollectedAt, &parameter, &r.RawResult, &r.Unit, &r.NumericValue, &r.Presence, &r.Compliant, &r.Latitude, &r.Longitude); err != nil {
			return nil, err
		}
		r.Parameter = models.Parameter(parameter)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) CountSamples() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&count)
	return count, err
}

// ClearSamples removes all sample rows, for full re-ingestion of a fresh
// export.
func (s *Store) ClearSamples() error {
	_, err := s.db.Exec(`DELETE FROM samples`)
	return err
}
