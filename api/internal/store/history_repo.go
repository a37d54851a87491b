// Package store persists identification results to Postgres. The store is
// optional at runtime; the API works without a database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"device-identifier/api/internal/pipeline"
)

var ErrNotFound = sql.ErrNoRows

// Schema is the DDL the repo expects; applied at startup with EnsureSchema.
const Schema = `
create table if not exists identifications (
  id                  bigserial primary key,
  created_at          timestamptz not null default now(),
  filename            text not null,
  file_size           bigint not null,
  model               text not null,
  status              text not null,
  top_label           text not null default '',
  confidence          double precision not null default 0,
  problem_detected    boolean not null default false,
  problem_description text not null default '',
  response_json       jsonb not null
)`

type HistoryRepo struct{ DB *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{DB: db} }

func (r *HistoryRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

// HistoryRow mirrors one stored identification.
type HistoryRow struct {
	ID                 int64              `json:"id"`
	CreatedAt          time.Time          `json:"created_at"`
	Filename           string             `json:"filename"`
	FileSize           int64              `json:"file_size"`
	Model              string             `json:"model"`
	Status             string             `json:"status"`
	TopLabel           string             `json:"top_label,omitempty"`
	Confidence         float64            `json:"confidence"`
	ProblemDetected    bool               `json:"problem_detected"`
	ProblemDescription string             `json:"problem_description,omitempty"`
	Response           *pipeline.Envelope `json:"response,omitempty"`
}

// Record satisfies pipeline.Recorder.
func (r *HistoryRepo) Record(ctx context.Context, env *pipeline.Envelope) error {
	js, err := json.Marshal(env)
	if err != nil {
		return err
	}

	topLabel := ""
	confidence := 0.0
	if env.TopPrediction != nil {
		topLabel = env.TopPrediction.Label
	}
	if env.Confidence != nil {
		confidence = *env.Confidence
	}

	const q = `
insert into identifications (
  filename, file_size, model, status,
  top_label, confidence, problem_detected, problem_description, response_json
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.DB.ExecContext(ctx, q,
		env.Filename, env.FileSize, env.ModelUsed, env.Status,
		topLabel, confidence, env.ProblemDetected, env.ProblemDescription, js,
	)
	return err
}

// Recent returns the newest identifications, most recent first.
func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
select id, created_at, filename, file_size, model, status,
       top_label, confidence, problem_detected, problem_description, response_json
from identifications
order by created_at desc, id desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]HistoryRow, 0, limit)
	for rows.Next() {
		var (
			row HistoryRow
			js  []byte
		)
		if err := rows.Scan(&row.ID, &row.CreatedAt, &row.Filename, &row.FileSize,
			&row.Model, &row.Status, &row.TopLabel, &row.Confidence,
			&row.ProblemDetected, &row.ProblemDescription, &js); err != nil {
			return nil, err
		}
		var env pipeline.Envelope
		if err := json.Unmarshal(js, &env); err == nil {
			row.Response = &env
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PurgeOlderThan trims old rows so the audit table does not grow unbounded.
func (r *HistoryRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from identifications where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
