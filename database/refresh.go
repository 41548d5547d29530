package database

import (
	"context"
	"fmt"
	"time"
)

// RefreshRow records the outcome of one price refresh, not the prices.
type RefreshRow struct {
	Timestamp time.Time `json:"timestamp"`
	Zone      string    `json:"zone"`
	Source    string    `json:"source"`
	Hours     int       `json:"hours"`
	Error     string    `json:"error,omitempty"`
}

func (d *Database) SaveRefresh(ctx context.Context, r RefreshRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO refresh (timestamp, zone, source, hours, error)
		VALUES (?, ?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Zone,
		r.Source,
		r.Hours,
		r.Error)
	if err != nil {
		return fmt.Errorf("saving refresh: %w", err)
	}
	return nil
}

// GetRefreshes returns the most recent refreshes, newest first.
func (d *Database) GetRefreshes(ctx context.Context, limit int) ([]RefreshRow, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT timestamp, zone, source, hours, error
		FROM refresh
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching refreshes: %w", err)
	}
	defer rows.Close()

	var ts string
	result := make([]RefreshRow, 0, limit)
	for rows.Next() {
		var r RefreshRow
		if err := rows.Scan(&ts, &r.Zone, &r.Source, &r.Hours, &r.Error); err != nil {
			return nil, err
		}
		r.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading refresh rows: %w", err)
	}

	return result, nil
}

// PurgeRefreshes deletes refreshes older than retentionDays.
func (d *Database) PurgeRefreshes(ctx context.Context, retentionDays int) error {
	before := time.Now().UTC().Add(-24 * time.Hour * time.Duration(retentionDays))
	res, err := d.write.ExecContext(ctx, `DELETE FROM refresh WHERE timestamp < ?`, before.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("purging refresh: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		d.logger.Debug(fmt.Sprintf("purged %d rows from refresh", n))
	}
	return nil
}
