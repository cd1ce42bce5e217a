package database

import (
	"context"
	"database/sql"
	"price-alert-bot/internal/metrics"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const upsertMetric = `
	INSERT INTO metrics (metric_name, label_key, label_value, metric_value)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (metric_name, label_key, label_value) DO UPDATE SET metric_value = excluded.metric_value;`

// SaveMetrics writes a batch of counter samples in one transaction
func (s *Store) SaveMetrics(ctx context.Context, samples []metrics.Sample) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin metrics transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertMetric)
	if err != nil {
		return errors.Wrap(err, "prepare metric upsert")
	}
	defer stmt.Close()

	for _, m := range samples {
		if _, err := stmt.ExecContext(ctx, m.Name, m.LabelKey, m.LabelValue, m.Value); err != nil {
			return errors.Wrapf(err, "save metric %s[%s=%s]", m.Name, m.LabelKey, m.LabelValue)
		}
	}

	return errors.Wrap(tx.Commit(), "commit metrics")
}

// GetMetric reads an unlabeled counter, 0 when it was never saved
func (s *Store) GetMetric(ctx context.Context, metricName string) (float64, error) {
	var value float64
	query := `
	SELECT metric_value
	FROM metrics
	WHERE metric_name = ? AND label_key = '' AND label_value = '';`
	err := s.DB.QueryRowContext(ctx, query, metricName).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debugf("Metric %s not found in the database, defaulting to 0", metricName)
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "get metric %s", metricName)
	}
	return value, nil
}

// GetMetricsWithLabels fetches all labeled values of a metric as label_key -> label_value -> value
func (s *Store) GetMetricsWithLabels(ctx context.Context, metricName string) (map[string]map[string]float64, error) {
	query := `
	SELECT label_key, label_value, metric_value
	FROM metrics
	WHERE metric_name = ? AND label_key <> '';`

	rows, err := s.DB.QueryContext(ctx, query, metricName)
	if err != nil {
		return nil, errors.Wrap(err, "query metrics with labels")
	}
	defer rows.Close()

	out := make(map[string]map[string]float64)
	for rows.Next() {
		var labelKey, labelValue string
		var value float64
		if err := rows.Scan(&labelKey, &labelValue, &value); err != nil {
			return nil, errors.Wrap(err, "scan metric row")
		}

		if _, exists := out[labelKey]; !exists {
			out[labelKey] = make(map[string]float64)
		}
		out[labelKey][labelValue] = value
	}
	return out, rows.Err()
}
