package usecase_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
	"github.com/iho/periodclose/internal/usecase"
	"github.com/iho/periodclose/internal/usecase/mocks"
)

var (
	fxAccounts      = domain.FxAccounts{Clearing: "4131", Gain: "515", Loss: "635"}
	closingAccounts = domain.ClosingAccounts{IncomeSummary: "911", RetainedEarnings: "4212"}
)

// fixture wires the engines against one in-memory ledger.
type fixture struct {
	ledger      *mocks.Ledger
	metrics     *metrics.Metrics
	snapshot    *usecase.SnapshotUseCase
	vouchers    *usecase.VoucherUseCase
	allocation  *usecase.AllocationUseCase
	revaluation *usecase.RevaluationUseCase
	closing     *usecase.ClosingUseCase
	debt        *usecase.DebtUseCase
}

func newFixture(t *testing.T, lockedUntil time.Time) *fixture {
	t.Helper()

	ledger := mocks.NewLedger()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	logger := zerolog.Nop()
	idGen := mocks.NewSequenceIDGenerator("id")
	locker := mocks.FixedLocker{Until: lockedUntil}

	snapshot := usecase.NewSnapshotUseCase(ledger.ChartRepo(), ledger.BalanceRepo(), nil, 0, m, logger)
	vouchers := usecase.NewVoucherUseCase(ledger.TxManager(), ledger.VoucherRepo(), ledger.OutboxRepo(), nil, idGen, m, logger)

	return &fixture{
		ledger:   ledger,
		metrics:  m,
		snapshot: snapshot,
		vouchers: vouchers,
		allocation: usecase.NewAllocationUseCase(
			ledger.AllocationRepo(), vouchers, locker, idGen, usecase.AllocationConfig{}, m, logger,
		),
		revaluation: usecase.NewRevaluationUseCase(snapshot, vouchers, locker, fxAccounts, m, logger),
		closing:     usecase.NewClosingUseCase(snapshot, vouchers, locker, closingAccounts, m, logger),
		debt: usecase.NewDebtUseCase(
			ledger.TxManager(), ledger.DebtRepo(), ledger.OutboxRepo(), nil, idGen, m, logger,
		),
	}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func account(code string, class domain.AccountClass) domain.ChartAccount {
	return domain.ChartAccount{Code: code, Name: "Account " + code, Class: class}
}
