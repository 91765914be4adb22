package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/periodclose/internal/domain"
)

// PeriodLockUseCase owns the posting cutoff. The cutoff is cached in memory
// so engines can check it before touching the ledger.
type PeriodLockUseCase struct {
	settingsRepo SettingsRepository
	fallback     time.Time
	lockedUntil  atomic.Pointer[time.Time]
	logger       zerolog.Logger
}

// NewPeriodLockUseCase creates a new PeriodLockUseCase. fallback is used when
// the ledger has no stored cutoff.
func NewPeriodLockUseCase(settingsRepo SettingsRepository, fallback time.Time, logger zerolog.Logger) *PeriodLockUseCase {
	uc := &PeriodLockUseCase{
		settingsRepo: settingsRepo,
		logger:       logger.With().Str("component", "period_lock").Logger(),
	}
	if !fallback.IsZero() {
		uc.fallback = domain.NormalizeDate(fallback)
	}
	uc.store(uc.fallback)
	return uc
}

// Load refreshes the cached cutoff from the ledger.
func (uc *PeriodLockUseCase) Load(ctx context.Context) error {
	lockedUntil, err := uc.settingsRepo.GetLockedUntil(ctx)
	if err != nil {
		return fmt.Errorf("load period lock: %w", err)
	}

	if lockedUntil.IsZero() {
		lockedUntil = uc.fallback
	}
	uc.store(lockedUntil)

	uc.logger.Info().Str("locked_until", formatCutoff(lockedUntil)).Msg("period lock loaded")
	return nil
}

// LockedUntil returns the cached cutoff; zero means nothing is locked.
func (uc *PeriodLockUseCase) LockedUntil() time.Time {
	if t := uc.lockedUntil.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// SetLockedUntil persists a new cutoff and swaps the cached value. A zero
// time clears the lock.
func (uc *PeriodLockUseCase) SetLockedUntil(ctx context.Context, lockedUntil time.Time) (time.Time, error) {
	if !lockedUntil.IsZero() {
		lockedUntil = domain.NormalizeDate(lockedUntil)
	}

	if err := uc.settingsRepo.SetLockedUntil(ctx, lockedUntil); err != nil {
		return time.Time{}, fmt.Errorf("save period lock: %w", err)
	}
	previous := uc.LockedUntil()
	uc.store(lockedUntil)

	uc.logger.Info().
		Str("previous", formatCutoff(previous)).
		Str("locked_until", formatCutoff(lockedUntil)).
		Msg("period lock changed")

	return lockedUntil, nil
}

func (uc *PeriodLockUseCase) store(t time.Time) {
	uc.lockedUntil.Store(&t)
}

func formatCutoff(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	return t.Format(domain.DateLayout)
}
