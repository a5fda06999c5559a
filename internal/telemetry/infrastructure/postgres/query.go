package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// SampleQuery reads recent history for a device.
type SampleQuery struct {
	db    *sql.DB
	table string
}

// QueryOption configures the sample query.
type QueryOption func(*SampleQuery)

// WithQueryTable overrides the default table name for queries.
func WithQueryTable(table string) QueryOption {
	return func(query *SampleQuery) {
		if query != nil && table != "" {
			query.table = table
		}
	}
}

// NewSampleQuery constructs a query with default table name.
func NewSampleQuery(db *sql.DB, opts ...QueryOption) *SampleQuery {
	query := &SampleQuery{db: db, table: defaultSampleTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// RecentWindow returns up to limit most recent samples for a device,
// newest first. Callers re-sort ascending through telemetry.NewWindow.
// An empty result means the device has no history yet.
func (q *SampleQuery) RecentWindow(ctx context.Context, deviceID string, limit int) ([]telemetry.Sample, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("sample query: nil db")
	}
	if err := telemetry.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = telemetry.DefaultWindowSize
	}

	query := fmt.Sprintf(`
SELECT device_id, ts, glucose, variation, trend, heart_rate, oxygen,
	sensor_unstable, tachycardia, bradycardia, hypoxia
FROM %s
WHERE device_id = $1
ORDER BY ts DESC
LIMIT $2`, q.table)

	rows, err := q.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]telemetry.Sample, 0, limit)
	for rows.Next() {
		var sample telemetry.Sample
		var trend int
		if err := rows.Scan(
			&sample.DeviceID,
			&sample.Timestamp,
			&sample.Glucose,
			&sample.Variation,
			&trend,
			&sample.HeartRate,
			&sample.Oxygen,
			&sample.SensorUnstable,
			&sample.Tachycardia,
			&sample.Bradycardia,
			&sample.Hypoxia,
		); err != nil {
			return nil, err
		}
		sample.Trend = telemetry.Trend(trend)
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
