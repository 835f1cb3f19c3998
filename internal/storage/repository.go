package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertAlertSQL = `INSERT INTO alerts (
        observed_at,
        kind,
        bpm,
        threshold,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    RETURNING id, observed_at, kind, bpm, threshold, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        observed_at,
        kind,
        bpm,
        threshold,
        channels,
        created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alerts WHERE created_at < $1;`

	countAlertsSQL = `SELECT COUNT(*) FROM alerts;`
)

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// Store provides access to the alert audit log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAlert persists one alert episode and returns the stored row.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	var bpm interface{}
	if alert.BPM != nil {
		bpm = *alert.BPM
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.ObservedAt,
		alert.Kind,
		bpm,
		alert.Threshold,
		alert.Channels,
	)

	stored, scanErr := scanAlert(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return stored, nil
}

// ListRecentAlerts lists the most recent alert episodes, newest first.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0)
	for rows.Next() {
		alert, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent alerts: %w", err)
	}
	return alerts, nil
}

// DeleteAlertsBefore prunes audit rows older than the given time.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

// CountAlerts reports the total number of audited alerts.
func (s *Store) CountAlerts(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countAlertsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count alerts: %w", scanErr)
	}
	return count, nil
}

func scanAlert(row pgx.Row) (AlertRecord, error) {
	var alert AlertRecord
	var bpm *int32

	err := row.Scan(
		&alert.ID,
		&alert.ObservedAt,
		&alert.Kind,
		&bpm,
		&alert.Threshold,
		&alert.Channels,
		&alert.CreatedAt,
	)
	if err != nil {
		return AlertRecord{}, fmt.Errorf("scan alert: %w", err)
	}

	if bpm != nil {
		v := int(*bpm)
		alert.BPM = &v
	}
	return alert, nil
}

var _ AlertStore = (*Store)(nil)
