// Package insights persists the engine's optimization audit trail: one
// insert-only record per applied offer adaptation, delivered best-effort
// through an outbox so the engine never blocks on the database.
package insights

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Record is one insight row. InsightData is an opaque JSON payload whose
// shape depends on InsightType.
type Record struct {
	ID              string          `json:"id"`
	InsightType     string          `json:"insight_type"`
	InsightData     json.RawMessage `json:"insight_data"`
	ConfidenceScore int             `json:"confidence_score"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Store manages insight records in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new insight store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert writes one record and returns it with the generated ID and
// timestamp filled in.
func (s *Store) Insert(ctx context.Context, rec Record) (*Record, error) {
	if rec.InsightData == nil {
		rec.InsightData = json.RawMessage("{}")
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO personalization_insights (insight_type, insight_data, confidence_score)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		rec.InsightType, []byte(rec.InsightData), rec.ConfidenceScore,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecent returns the newest records of one type, newest first.
func (s *Store) ListRecent(ctx context.Context, insightType string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, insight_type, insight_data, confidence_score, created_at
		FROM personalization_insights
		WHERE insight_type = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		insightType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var data []byte
		if err := rows.Scan(&rec.ID, &rec.InsightType, &data, &rec.ConfidenceScore, &rec.CreatedAt); err != nil {
			continue
		}
		rec.InsightData = json.RawMessage(data)
		records = append(records, rec)
	}
	return records, rows.Err()
}
