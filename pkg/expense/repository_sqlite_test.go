package expense

import (
	"context"
	"testing"

	"github.com/klokku/expenses/internal/test_utils"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSqliteRepository(t *testing.T) Repository {
	return NewSqliteRepository(test_utils.SetupSqliteDB(t))
}

func TestSqliteRepository(t *testing.T) {
	runRepositoryContract(t, setupSqliteRepository)
}

func TestSqliteRepository_KeepsAmountPrecision(t *testing.T) {
	// given
	ctx := context.Background()
	repo := setupSqliteRepository(t)
	_, err := repo.Save(ctx, Expense{Title: "a", Amount: amount("0.10"), Category: "Cents", Date: date(2025, 1, 1)})
	require.NoError(t, err)
	_, err = repo.Save(ctx, Expense{Title: "b", Amount: amount("0.20"), Category: "Cents", Date: date(2025, 1, 1)})
	require.NoError(t, err)

	// when
	total, err := repo.SumByCategory(ctx, "Cents")

	// then
	require.NoError(t, err)
	assert.Equal(t, "0.3", total.String())
}

func TestSqliteRepository_LogsCorruptRows(t *testing.T) {
	// given
	ctx := context.Background()
	db := test_utils.SetupSqliteDB(t)
	_, err := db.ExecContext(ctx,
		`INSERT INTO expense (title, amount, category, date) VALUES ('broken', 'not-a-number', 'Corrupt', '2025-01-01')`)
	require.NoError(t, err)
	repo := NewSqliteRepository(db)
	hook := logtest.NewGlobal()
	t.Cleanup(hook.Reset)

	// when
	_, err = repo.SumByCategory(ctx, "Corrupt")

	// then
	require.Error(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "invalid amount")
}
