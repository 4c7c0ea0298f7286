package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/freelance-market/internal/model"
)

var lockJobColumns = []string{
	"id", "description", "price", "paid", "payment_date", "contract_id",
	"client_id", "contractor_id", "contract_status",
}

func TestWithinTxCommitsSettlement(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewLedgerRepository(database)
	paidAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF j")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(lockJobColumns).
			AddRow(int64(5), "work", "50.00", false, nil, int64(2), int64(1), int64(9), "in_progress"))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id ASC")).
		WithArgs(int64(1), int64(9)).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(int64(1), "Ada", "Client", "Investor", "100.00", "client").
			AddRow(int64(9), "Bob", "Builder", "Programmer", "10.00", "contractor"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("paid IS NOT TRUE")).
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(tx LedgerTx) error {
		job, err := tx.LockJob(5)
		require.NoError(t, err)
		assert.Equal(t, int64(1), job.ClientID)
		assert.Equal(t, int64(9), job.ContractorID)
		assert.Equal(t, model.ContractStatusInProgress, job.ContractStatus)
		assert.True(t, job.Price.Equal(decimal.NewFromInt(50)))
		assert.False(t, job.Paid)

		profiles, err := tx.LockProfiles(job.ContractorID, job.ClientID)
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, int64(1), profiles[0].ID)

		require.NoError(t, tx.AdjustBalance(job.ClientID, job.Price.Neg()))
		require.NoError(t, tx.AdjustBalance(job.ContractorID, job.Price))
		return tx.MarkJobPaid(job.ID, paidAt)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewLedgerRepository(database)
	rejected := errors.New("rejected")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF j")).
		WillReturnRows(sqlmock.NewRows(lockJobColumns).
			AddRow(int64(5), "work", "50.00", true, time.Now(), int64(2), int64(1), int64(9), "in_progress"))
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(tx LedgerTx) error {
		job, err := tx.LockJob(5)
		require.NoError(t, err)
		assert.True(t, job.Paid)
		assert.NotNil(t, job.PaymentDate)
		return rejected
	})

	assert.ErrorIs(t, err, rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockJobNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewLedgerRepository(database)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs j")).
		WillReturnRows(sqlmock.NewRows(lockJobColumns))
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(tx LedgerTx) error {
		_, err := tx.LockJob(404)
		return err
	})

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkJobPaidDetectsConcurrentPayment(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewLedgerRepository(database)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(tx LedgerTx) error {
		return tx.MarkJobPaid(5, time.Now())
	})

	assert.ErrorIs(t, err, ErrJobAlreadyPaid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBalanceMissingProfile(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewLedgerRepository(database)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(tx LedgerTx) error {
		return tx.AdjustBalance(77, decimal.NewFromInt(5))
	})

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueSorted(t *testing.T) {
	assert.Equal(t, []int64{1, 4, 9}, uniqueSorted([]int64{9, 1, 4, 9, 1}))
	assert.Empty(t, uniqueSorted(nil))
}
