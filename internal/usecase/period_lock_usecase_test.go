package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/usecase"
	"github.com/iho/periodclose/internal/usecase/mocks"
)

func TestPeriodLockUseCase_Load(t *testing.T) {
	tests := []struct {
		name     string
		stored   time.Time
		fallback time.Time
		want     time.Time
	}{
		{name: "stored cutoff wins", stored: date(2025, 2, 28), fallback: date(2024, 12, 31), want: date(2025, 2, 28)},
		{name: "fallback when nothing stored", fallback: date(2024, 12, 31), want: date(2024, 12, 31)},
		{name: "unlocked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockSettingsRepository(ctrl)
			repo.EXPECT().GetLockedUntil(gomock.Any()).Return(tt.stored, nil)

			uc := usecase.NewPeriodLockUseCase(repo, tt.fallback, zerolog.Nop())
			require.NoError(t, uc.Load(context.Background()))
			assert.True(t, uc.LockedUntil().Equal(tt.want), "got %s", uc.LockedUntil())
		})
	}
}

func TestPeriodLockUseCase_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSettingsRepository(ctrl)
	repo.EXPECT().GetLockedUntil(gomock.Any()).Return(time.Time{}, errors.New("db down"))

	uc := usecase.NewPeriodLockUseCase(repo, date(2024, 12, 31), zerolog.Nop())
	require.Error(t, uc.Load(context.Background()))
	assert.True(t, uc.LockedUntil().Equal(date(2024, 12, 31)), "fallback stays in effect")
}

func TestPeriodLockUseCase_SetLockedUntil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSettingsRepository(ctrl)
	repo.EXPECT().SetLockedUntil(gomock.Any(), date(2025, 3, 31)).Return(nil)
	repo.EXPECT().SetLockedUntil(gomock.Any(), gomock.Any()).Return(errors.New("read only"))

	uc := usecase.NewPeriodLockUseCase(repo, time.Time{}, zerolog.Nop())
	assert.False(t, domain.IsLocked(date(2020, 1, 1), uc.LockedUntil()), "nothing is locked by default")

	got, err := uc.SetLockedUntil(context.Background(), time.Date(2025, 3, 31, 17, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 31), got)

	assert.True(t, domain.IsLocked(date(2025, 3, 31), uc.LockedUntil()))
	assert.False(t, domain.IsLocked(date(2025, 4, 1), uc.LockedUntil()))

	_, err = uc.SetLockedUntil(context.Background(), date(2025, 4, 30))
	require.Error(t, err)
	assert.Equal(t, date(2025, 3, 31), uc.LockedUntil(), "failed save keeps the old cutoff")
}
