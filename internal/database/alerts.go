package database

import (
	"context"
	"fmt"
	"price-alert-bot/internal/types"
	"time"

	log "github.com/sirupsen/logrus"
)

// RecordAlert journals an alert that was handed to the notifier
func (s *Store) RecordAlert(ctx context.Context, ev types.AlertEvent, delivered bool) error {
	query := `
	INSERT INTO alerts (symbol, direction, magnitude, previous_price, price, delivered, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);`

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.DB.ExecContext(ctx, query, ev.Asset.Symbol, string(ev.Direction), ev.Magnitude,
		ev.Previous, ev.Current, delivered, at.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	log.Debugf("Alert journaled: %s %s %.2f delivered=%t", ev.Asset.Symbol, ev.Direction, ev.Magnitude, delivered)
	return nil
}

// RecentAlerts returns up to limit journaled alerts, newest first
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]types.AlertRecord, error) {
	query := `
	SELECT id, symbol, direction, magnitude, previous_price, price, delivered, created_at
	FROM alerts ORDER BY created_at DESC, id DESC LIMIT ?;`

	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []types.AlertRecord
	for rows.Next() {
		var (
			a         types.AlertRecord
			direction string
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.Symbol, &direction, &a.Magnitude, &a.Previous, &a.Price, &a.Delivered, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		a.Direction = types.Direction(direction)
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
