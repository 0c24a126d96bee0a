package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services/history"
	"safesphere/internal/infrastructure/database"
)

const scanSchema = `
	CREATE TABLE IF NOT EXISTS scans (
		seq             BIGSERIAL PRIMARY KEY,
		id              TEXT NOT NULL UNIQUE,
		scanned_at      TIMESTAMPTZ NOT NULL,
		content_preview TEXT NOT NULL,
		risk_level      TEXT NOT NULL,
		risk_score      INTEGER NOT NULL,
		flags           TEXT[] NOT NULL DEFAULT '{}',
		flag_count      INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_stats (
		id               SMALLINT PRIMARY KEY CHECK (id = 1),
		total_scans      BIGINT NOT NULL DEFAULT 0,
		suspicious_cases BIGINT NOT NULL DEFAULT 0,
		safe_scans       BIGINT NOT NULL DEFAULT 0,
		last_updated     TIMESTAMPTZ
	);

	INSERT INTO scan_stats (id) VALUES (1) ON CONFLICT (id) DO NOTHING;`

// ScanRepository handles scan history persistence
type ScanRepository struct {
	db *database.PostgresDB
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *database.PostgresDB) *ScanRepository {
	return &ScanRepository{db: db}
}

var _ history.Store = (*ScanRepository)(nil)

// Init creates the tables when missing
func (r *ScanRepository) Init(ctx context.Context) error {
	if _, err := r.db.Pool().Exec(ctx, scanSchema); err != nil {
		return fmt.Errorf("failed to create scan schema: %w", err)
	}
	return nil
}

// Add inserts the record, trims old rows and bumps the counters in one transaction.
// The counters row is locked first so concurrent adds serialize.
func (r *ScanRepository) Add(ctx context.Context, rec models.ScanRecord) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		suspicious, safe := 0, 1
		if rec.RiskLevel.IsSuspicious() {
			suspicious, safe = 1, 0
		}

		_, err := tx.Exec(ctx, `
			UPDATE scan_stats SET
				total_scans = total_scans + 1,
				suspicious_cases = suspicious_cases + $1,
				safe_scans = safe_scans + $2,
				last_updated = $3
			WHERE id = 1`,
			suspicious, safe, timeToTimestamptz(rec.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("failed to update scan stats: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO scans (id, scanned_at, content_preview, risk_level, risk_score, flags, flag_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.Timestamp, rec.ContentPreview, string(rec.RiskLevel),
			rec.RiskScore, flagsToStrings(rec.Flags), rec.FlagCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scan: %w", err)
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM scans WHERE seq NOT IN (
				SELECT seq FROM scans ORDER BY seq DESC LIMIT $1
			)`, history.MaxRecords)
		if err != nil {
			return fmt.Errorf("failed to trim scans: %w", err)
		}
		return nil
	})
}

// Recent returns up to limit records, newest first
func (r *ScanRepository) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT id, scanned_at, content_preview, risk_level, risk_score, flags, flag_count
		FROM scans
		ORDER BY seq DESC
		LIMIT $1`, history.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	scans := []models.ScanRecord{}
	for rows.Next() {
		var (
			rec   models.ScanRecord
			level string
			flags []string
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.ContentPreview, &level, &rec.RiskScore, &flags, &rec.FlagCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		rec.RiskLevel = models.RiskLevel(level)
		rec.Flags = stringsToFlags(flags)
		scans = append(scans, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}
	return scans, nil
}

// Stats returns the running counters
func (r *ScanRepository) Stats(ctx context.Context) (models.ScanStats, error) {
	var (
		stats       models.ScanStats
		lastUpdated pgtype.Timestamptz
	)
	err := r.db.Pool().QueryRow(ctx, `
		SELECT total_scans, suspicious_cases, safe_scans, last_updated
		FROM scan_stats WHERE id = 1`,
	).Scan(&stats.TotalScans, &stats.SuspiciousCases, &stats.SafeScans, &lastUpdated)
	if err == pgx.ErrNoRows {
		return models.ScanStats{}, nil
	}
	if err != nil {
		return models.ScanStats{}, fmt.Errorf("failed to get scan stats: %w", err)
	}
	stats.LastUpdated = timestamptzToTime(lastUpdated)
	return stats, nil
}

// Clear deletes all scans and zeroes the counters
func (r *ScanRepository) Clear(ctx context.Context) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scans`); err != nil {
			return fmt.Errorf("failed to delete scans: %w", err)
		}
		_, err := tx.Exec(ctx, `
			UPDATE scan_stats SET
				total_scans = 0, suspicious_cases = 0, safe_scans = 0, last_updated = NULL
			WHERE id = 1`)
		if err != nil {
			return fmt.Errorf("failed to reset scan stats: %w", err)
		}
		return nil
	})
}
