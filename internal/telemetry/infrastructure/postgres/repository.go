package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "glucose-sentinel/internal/telemetry/domain"
)

const defaultSampleTable = "glucose_samples"

// SampleRepository is a Postgres implementation for telemetry samples.
type SampleRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SampleRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SampleRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewSampleRepository constructs a repository with default table name.
func NewSampleRepository(db *sql.DB, opts ...RepositoryOption) *SampleRepository {
	repo := &SampleRepository{db: db, table: defaultSampleTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Insert upserts a sample keyed by (device_id, ts). Re-delivery of the same
// reading overwrites in place instead of duplicating history.
func (r *SampleRepository) Insert(ctx context.Context, sample telemetry.Sample) error {
	if r == nil || r.db == nil {
		return errors.New("sample repo: nil db")
	}
	if err := sample.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	device_id,
	ts,
	glucose,
	variation,
	trend,
	heart_rate,
	oxygen,
	sensor_unstable,
	tachycardia,
	bradycardia,
	hypoxia
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
ON CONFLICT (device_id, ts)
DO UPDATE SET
	glucose = EXCLUDED.glucose,
	variation = EXCLUDED.variation,
	trend = EXCLUDED.trend,
	heart_rate = EXCLUDED.heart_rate,
	oxygen = EXCLUDED.oxygen,
	sensor_unstable = EXCLUDED.sensor_unstable,
	tachycardia = EXCLUDED.tachycardia,
	bradycardia = EXCLUDED.bradycardia,
	hypoxia = EXCLUDED.hypoxia,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		sample.DeviceID,
		sample.Timestamp,
		sample.Glucose,
		sample.Variation,
		int(sample.Trend),
		sample.HeartRate,
		sample.Oxygen,
		sample.SensorUnstable,
		sample.Tachycardia,
		sample.Bradycardia,
		sample.Hypoxia,
	)
	return err
}
