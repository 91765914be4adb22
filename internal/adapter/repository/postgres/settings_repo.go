package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/postgres/generated"
)

// SettingPeriodLockedUntil holds the posting cutoff as YYYY-MM-DD, empty when unlocked.
const SettingPeriodLockedUntil = "period_locked_until"

// SettingsRepository implements usecase.SettingsRepository.
type SettingsRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// GetLockedUntil returns the stored cutoff, or the zero time when none is set.
func (r *SettingsRepository) GetLockedUntil(ctx context.Context) (time.Time, error) {
	value, err := r.queries.GetSetting(ctx, SettingPeriodLockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}

		return time.Time{}, err
	}

	if value == "" {
		return time.Time{}, nil
	}

	lockedUntil, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("setting %s: %w", SettingPeriodLockedUntil, err)
	}

	return lockedUntil, nil
}

// SetLockedUntil stores the cutoff. A zero time clears it.
func (r *SettingsRepository) SetLockedUntil(ctx context.Context, lockedUntil time.Time) error {
	var value string
	if !lockedUntil.IsZero() {
		value = lockedUntil.Format(domain.DateLayout)
	}

	return r.queries.UpsertSetting(ctx, generated.UpsertSettingParams{
		Key:       SettingPeriodLockedUntil,
		Value:     value,
		UpdatedAt: timeToPgTimestamptz(time.Now().UTC()),
	})
}
