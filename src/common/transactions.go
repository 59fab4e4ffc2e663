package common

import (
	"errors"
	"log"
	"time"

	"lms/src/db"
	"lms/src/models"
	"lms/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrReferenceConflict means a reference was reused with different
	// amount, currency, course or user. Reference generation discipline
	// should make this impossible; when it happens it is never folded
	// into an idempotent success.
	ErrReferenceConflict = errors.New("reference already used by a different transaction")

	// ErrUnknownTransaction means the reference was never initialized
	// here. Either a forged reference or a bug; never settled.
	ErrUnknownTransaction = errors.New("unknown transaction reference")
)

// legalTransitions is the entire forward-only status graph. Anything
// not listed is a no-op.
var legalTransitions = map[types.TransactionStatus][]types.TransactionStatus{
	types.TRANSACTION_PENDING:    {types.TRANSACTION_SUCCESSFUL, types.TRANSACTION_FAILED},
	types.TRANSACTION_SUCCESSFUL: {types.TRANSACTION_REFUNDED},
}

func transitionAllowed(from, to types.TransactionStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CreateTransaction records a checkout attempt before the gateway is
// contacted. A duplicate reference carrying identical details is
// returned as an idempotent success, which makes "retry the create
// call" safe.
func CreateTransaction(reference string, courseId uint, userId uint, amount float64, currency string) (*models.Transaction, error) {
	gdb := db.GetDb()
	txn := &models.Transaction{
		Reference: reference,
		CourseID:  courseId,
		UserID:    userId,
		Amount:    amount,
		Currency:  currency,
		Status:    types.TRANSACTION_PENDING,
	}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).Create(txn)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		var existing models.Transaction
		if err := tx.
			Model(&models.Transaction{}).
			Where("reference = ?", reference).
			First(&existing).
			Error; err != nil {
			return err
		}
		if existing.CourseID != courseId ||
			existing.UserID != userId ||
			existing.Amount != amount ||
			existing.Currency != currency {
			return ErrReferenceConflict
		}
		*txn = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransaction looks a transaction up by its reference.
func GetTransaction(reference string) (*models.Transaction, error) {
	gdb := db.GetDb()
	var txn models.Transaction
	err := gdb.
		Model(&models.Transaction{}).
		Where("reference = ?", reference).
		First(&txn).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}
	return &txn, nil
}

// GetTransactionByProviderRef resolves the provider-assigned id back to
// a local transaction.
func GetTransactionByProviderRef(providerRef string) (*models.Transaction, error) {
	gdb := db.GetDb()
	var txn models.Transaction
	err := gdb.
		Model(&models.Transaction{}).
		Where("provider_ref = ?", providerRef).
		First(&txn).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}
	return &txn, nil
}

// TransitionTransaction is the settlement CAS. The status moves from
// `from` to `to` in a single conditional UPDATE; concurrent callers
// racing on the same reference will see exactly one applied=true. A
// transition outside the legal set, or a row whose status no longer
// matches `from`, reports applied=false without error.
func TransitionTransaction(reference string, from, to types.TransactionStatus, extra map[string]any) (bool, *models.Transaction, error) {
	gdb := db.GetDb()
	if !transitionAllowed(from, to) {
		txn, err := GetTransaction(reference)
		return false, txn, err
	}
	updates := map[string]any{"status": to}
	switch to {
	case types.TRANSACTION_SUCCESSFUL, types.TRANSACTION_FAILED, types.TRANSACTION_REFUNDED:
		now := time.Now()
		updates["settled_at"] = &now
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := gdb.
		Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", reference, from).
		Updates(updates)
	if res.Error != nil {
		return false, nil, res.Error
	}
	applied := res.RowsAffected > 0
	txn, err := GetTransaction(reference)
	if err != nil {
		return applied, nil, err
	}
	return applied, txn, nil
}

// SweepStalePendingTransactions fails pending transactions that never
// resolved within ttl so the table does not accumulate unresolvable
// rows. Run from the scheduler, never per-request.
func SweepStalePendingTransactions(ttl time.Duration) {
	gdb := db.GetDb()
	now := time.Now()
	cutoff := now.Add(-ttl)
	res := gdb.
		Model(&models.Transaction{}).
		Where("status = ? AND created_at < ?", types.TRANSACTION_PENDING, cutoff).
		Updates(map[string]any{
			"status":     types.TRANSACTION_FAILED,
			"settled_at": &now,
		})
	if res.Error != nil {
		log.Printf("[Sweep] Error failing stale pending transactions: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("[Sweep] Failed %d stale pending transactions\n", res.RowsAffected)
	}
}
