package common

import (
	"testing"
	"time"

	"lms/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCreateTransaction(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	txn, err := CreateTransaction("r1", 7, 9, 5000, "NGN")
	assert.Nil(t, err)
	assert.Equal(t, "r1", txn.Reference)
	assert.Equal(t, types.TRANSACTION_PENDING, txn.Status)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateTransactionDuplicateIdentical(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(transactionRows("r1", "pending", 5000))
	mock.ExpectCommit()

	txn, err := CreateTransaction("r1", 7, 9, 5000, "NGN")
	assert.Nil(t, err)
	assert.Equal(t, "r1", txn.Reference)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateTransactionDuplicateConflicting(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(transactionRows("r1", "pending", 9999))
	mock.ExpectRollback()

	_, err := CreateTransaction("r1", 7, 9, 5000, "NGN")
	assert.ErrorIs(t, err, ErrReferenceConflict)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestTransitionApplied(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(transactionRows("r1", "successful", 5000))

	applied, txn, err := TransitionTransaction("r1", types.TRANSACTION_PENDING, types.TRANSACTION_SUCCESSFUL, nil)
	assert.Nil(t, err)
	assert.True(t, applied)
	assert.Equal(t, types.TRANSACTION_SUCCESSFUL, txn.Status)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestTransitionLostRace(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "transactions"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(transactionRows("r1", "successful", 5000))

	applied, txn, err := TransitionTransaction("r1", types.TRANSACTION_PENDING, types.TRANSACTION_SUCCESSFUL, nil)
	assert.Nil(t, err)
	assert.False(t, applied)
	assert.Equal(t, types.TRANSACTION_SUCCESSFUL, txn.Status)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestTransitionFromTerminalIsNoop(t *testing.T) {
	for _, from := range []types.TransactionStatus{
		types.TRANSACTION_FAILED,
		types.TRANSACTION_REFUNDED,
	} {
		_, mock := newMockDB()

		// No UPDATE is even attempted; only the current row is read back.
		mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
			WillReturnRows(transactionRows("r1", string(from), 5000))

		applied, txn, err := TransitionTransaction("r1", from, types.TRANSACTION_SUCCESSFUL, nil)
		assert.Nil(t, err)
		assert.False(t, applied)
		assert.Equal(t, from, txn.Status)
		assert.Nil(t, mock.ExpectationsWereMet())
	}
}

func TestGetTransactionUnknown(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := GetTransaction("forged")
	assert.ErrorIs(t, err, ErrUnknownTransaction)
}

func TestSweepStalePendingTransactions(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectBegin()
	// Swept rows get the same terminal record as any other transition,
	// settled_at included.
	mock.ExpectExec(`UPDATE "transactions" SET "settled_at"`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	SweepStalePendingTransactions(24 * time.Hour)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRecordWebhookEvent(t *testing.T) {
	_, mock := newMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	inserted, err := RecordWebhookEvent("evt-1", "r1", types.JSONB{"event": "charge.completed"})
	assert.Nil(t, err)
	assert.True(t, inserted)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	inserted, err = RecordWebhookEvent("evt-1", "r1", types.JSONB{"event": "charge.completed"})
	assert.Nil(t, err)
	assert.False(t, inserted)
	assert.Nil(t, mock.ExpectationsWereMet())
}
