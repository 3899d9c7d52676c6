// Package jobxpostgres archives finished jobs in PostgreSQL.
package jobxpostgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/jobx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction_log (
	job_id       TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	input        JSONB,
	label        TEXT,
	class_index  INTEGER,
	probs        DOUBLE PRECISION[],
	error        TEXT,
	worker       TEXT NOT NULL,
	duration_ms  BIGINT NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
)`

// Recorder implements jobx.ResultRecorder.
type Recorder struct {
	db *sqlx.DB
}

var _ jobx.ResultRecorder = (*Recorder)(nil)

func NewRecorder(db *sqlx.DB) *Recorder {
	return &Recorder{db: db}
}

// EnsureSchema creates prediction_log if it does not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errx.Wrap(err, "failed to create prediction_log", errx.TypeInternal)
	}
	return nil
}

type outcomeRow struct {
	JobID      string          `db:"job_id"`
	Status     string          `db:"status"`
	Input      []byte          `db:"input"`
	Label      sql.NullString  `db:"label"`
	ClassIndex sql.NullInt64   `db:"class_index"`
	Probs      pq.Float64Array `db:"probs"`
	Error      sql.NullString  `db:"error"`
	Worker     string          `db:"worker"`
	DurationMS int64           `db:"duration_ms"`
	FinishedAt time.Time       `db:"finished_at"`
}

// Record stores o. A job is archived at most once; repeated records for the
// same id are ignored.
func (r *Recorder) Record(ctx context.Context, o jobx.Outcome) error {
	row, err := toPersistence(o)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO prediction_log (
			job_id, status, input, label, class_index, probs, error,
			worker, duration_ms, finished_at
		) VALUES (
			:job_id, :status, :input, :label, :class_index, :probs, :error,
			:worker, :duration_ms, :finished_at
		)
		ON CONFLICT (job_id) DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return errx.Wrap(err, "failed to archive job outcome", errx.TypeInternal).
			WithDetail("job_id", o.JobID)
	}
	return nil
}

// Get reads back an archived outcome.
func (r *Recorder) Get(ctx context.Context, id string) (*jobx.Outcome, error) {
	var row outcomeRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM prediction_log WHERE job_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jobx.Errors().New(jobx.ErrJobNotFound).WithDetail("job_id", id)
		}
		return nil, errx.Wrap(err, "failed to read archived job", errx.TypeInternal).
			WithDetail("job_id", id)
	}
	return toDomain(row)
}

func toPersistence(o jobx.Outcome) (outcomeRow, error) {
	row := outcomeRow{
		JobID:      o.JobID,
		Status:     string(o.Status),
		Worker:     o.Worker,
		DurationMS: o.Duration.Milliseconds(),
		FinishedAt: o.FinishedAt,
	}
	if o.Input != nil {
		raw, err := json.Marshal(o.Input)
		if err != nil {
			return row, errx.Wrap(err, "failed to encode job input", errx.TypeInternal)
		}
		row.Input = raw
	}
	if o.Result != nil {
		row.Label = sql.NullString{String: o.Result.Label, Valid: true}
		row.ClassIndex = sql.NullInt64{Int64: int64(o.Result.Prediction), Valid: true}
		row.Probs = pq.Float64Array(o.Result.Probabilities)
	}
	if o.Error != nil {
		row.Error = sql.NullString{String: *o.Error, Valid: true}
	}
	return row, nil
}

func toDomain(row outcomeRow) (*jobx.Outcome, error) {
	o := &jobx.Outcome{
		JobID:      row.JobID,
		Status:     jobx.JobStatus(row.Status),
		Worker:     row.Worker,
		Duration:   time.Duration(row.DurationMS) * time.Millisecond,
		FinishedAt: row.FinishedAt,
	}
	if len(row.Input) > 0 {
		var in predictor.Input
		if err := json.Unmarshal(row.Input, &in); err != nil {
			return nil, errx.Wrap(err, "failed to decode archived input", errx.TypeInternal)
		}
		o.Input = &in
	}
	if row.Label.Valid {
		o.Result = &predictor.Prediction{
			Prediction:    int(row.ClassIndex.Int64),
			Label:         row.Label.String,
			Probabilities: []float64(row.Probs),
		}
	}
	if row.Error.Valid {
		msg := row.Error.String
		o.Error = &msg
	}
	return o, nil
}
