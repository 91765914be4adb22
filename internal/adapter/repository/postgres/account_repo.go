package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/periodclose/internal/domain"
	"github.com/iho/periodclose/internal/infrastructure/postgres/generated"
)

// openEndedAsOf stands in for "every posted voucher" when no cutoff is given.
var openEndedAsOf = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// AccountRepository implements usecase.ChartRepository and usecase.BalanceRepository.
type AccountRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// ListAccounts returns the chart of accounts ordered by code.
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]domain.ChartAccount, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.ChartAccount, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToChartAccount(row))
	}

	return accounts, nil
}

// ListBalances returns debits minus credits per account for vouchers posted on or before asOf.
func (r *AccountRepository) ListBalances(ctx context.Context, asOf time.Time) ([]domain.AccountBalance, error) {
	if asOf.IsZero() {
		asOf = openEndedAsOf
	}

	rows, err := r.queries.ListBalancesAsOf(ctx, timeToPgDate(asOf))
	if err != nil {
		return nil, err
	}

	balances := make([]domain.AccountBalance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, domain.AccountBalance{
			Code:       row.AccountCode,
			NetBalance: numericToDecimal(row.NetBalance),
		})
	}

	return balances, nil
}

func rowToChartAccount(row generated.Account) domain.ChartAccount {
	class := domain.AccountClass(row.Class)
	if class == "" || class == domain.AccountClassUnknown {
		class = domain.ClassForCode(row.Code)
	}

	return domain.ChartAccount{
		Code:     row.Code,
		Name:     row.Name,
		Class:    class,
		Currency: row.Currency,
	}
}
