package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"safesphere/internal/domain/models"
)

// Flag conversion helpers

func flagsToStrings(flags []models.Flag) []string {
	result := make([]string, len(flags))
	for i, f := range flags {
		result[i] = string(f)
	}
	return result
}

func stringsToFlags(strs []string) []models.Flag {
	result := make([]models.Flag, len(strs))
	for i, s := range strs {
		result[i] = models.Flag(s)
	}
	return result
}

// Timestamp conversion helpers

func timeToTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func timestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
