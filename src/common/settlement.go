package common

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"lms/src/db"
	"lms/src/lib"
	"lms/src/models"
	"lms/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerifyOutput is the shared result of both settlement paths. The
// redirect path and the webhook path converge here, so whichever loses
// the CAS race still reports the same terminal state to its caller.
type VerifyOutput struct {
	Outcome     types.VerificationOutcome
	Transaction *models.Transaction
	Enrollment  *models.Enrollment
}

// VerifyAndSettle drives one transaction through the settlement state
// machine. Safe to call any number of times, from any number of
// goroutines, in any order relative to the webhook: the conditional
// UPDATE in TransitionTransaction is the only arbiter.
func VerifyAndSettle(ctx context.Context, reference string) (*VerifyOutput, error) {
	txn, err := GetTransaction(reference)
	if err != nil {
		return nil, err
	}

	// Terminal states never go back to the gateway.
	switch txn.Status {
	case types.TRANSACTION_SUCCESSFUL:
		enrollment, _ := GetEnrollment(txn.UserID, txn.CourseID)
		return &VerifyOutput{Outcome: types.VERIFY_SUCCESSFUL, Transaction: txn, Enrollment: enrollment}, nil
	case types.TRANSACTION_FAILED, types.TRANSACTION_REFUNDED:
		return &VerifyOutput{Outcome: types.VERIFY_FAILED, Transaction: txn}, nil
	}

	gc := lib.GetGatewayClient()
	result, err := gc.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, lib.ErrGatewayNotFound) || errors.Is(err, lib.ErrGatewayUnreachable) {
			// Not a hard failure. The transaction stays pending and the
			// caller may retry later.
			log.Printf("[Verify] Gateway could not confirm [%s] yet: %s\n", reference, err.Error())
			return &VerifyOutput{Outcome: types.VERIFY_PENDING, Transaction: txn}, nil
		}
		return nil, err
	}

	if mismatched(txn, result) {
		log.Printf("[Verify] Mismatch on [%s]: stored %f %s course=%d user=%d, gateway reported %f %s course=%d user=%d\n",
			reference, txn.Amount, txn.Currency, txn.CourseID, txn.UserID,
			result.Amount, result.Currency, result.CourseID, result.UserID)
		_, failed, err := TransitionTransaction(reference, types.TRANSACTION_PENDING, types.TRANSACTION_FAILED, map[string]any{
			"fraud_flagged": true,
			"provider_ref":  result.ProviderRef,
		})
		if err != nil {
			return nil, err
		}
		go func() {
			if err := lib.KafkaProduceMessage("paymentsProducer", lib.TopicTransactionUpdates, map[string]any{
				"source":    "verification.mismatch",
				"reference": reference,
				"status":    types.TRANSACTION_FAILED,
				"flagged":   true,
			}); err != nil {
				log.Printf("Error sending message to queue: %s\n", err.Error())
			}
		}()
		return &VerifyOutput{Outcome: types.VERIFY_MISMATCH, Transaction: failed}, nil
	}

	switch result.Status {
	case "successful":
		applied, updated, err := TransitionTransaction(reference, types.TRANSACTION_PENDING, types.TRANSACTION_SUCCESSFUL, map[string]any{
			"provider_ref": result.ProviderRef,
		})
		if err != nil {
			return nil, err
		}
		if !applied {
			// Someone else settled concurrently; their settlement stands.
			enrollment, _ := GetEnrollment(updated.UserID, updated.CourseID)
			outcome := types.VERIFY_SUCCESSFUL
			if updated.Status != types.TRANSACTION_SUCCESSFUL {
				outcome = types.VERIFY_FAILED
			}
			return &VerifyOutput{Outcome: outcome, Transaction: updated, Enrollment: enrollment}, nil
		}
		enrollment, err := SettleEnrollment(updated.UserID, updated.CourseID, reference)
		if err != nil {
			log.Printf("[Settle] Error creating enrollment for [%s]: %s\n", reference, err.Error())
			return nil, err
		}
		afterSettlement(updated)
		return &VerifyOutput{Outcome: types.VERIFY_SUCCESSFUL, Transaction: updated, Enrollment: enrollment}, nil

	case "failed":
		_, updated, err := TransitionTransaction(reference, types.TRANSACTION_PENDING, types.TRANSACTION_FAILED, map[string]any{
			"provider_ref": result.ProviderRef,
		})
		if err != nil {
			return nil, err
		}
		return &VerifyOutput{Outcome: types.VERIFY_FAILED, Transaction: updated}, nil

	default:
		// Provider still processing.
		return &VerifyOutput{Outcome: types.VERIFY_PENDING, Transaction: txn}, nil
	}
}

func mismatched(txn *models.Transaction, result *lib.VerifyResult) bool {
	return txn.Amount != result.Amount ||
		txn.Currency != result.Currency ||
		txn.CourseID != result.CourseID ||
		txn.UserID != result.UserID
}

// SettleEnrollment converts a confirmed payment into course access,
// exactly once. The unique (user_id, course_id) index carries the
// idempotency; an existing enrollment is a success, not an error.
func SettleEnrollment(userId uint, courseId uint, reference string) (*models.Enrollment, error) {
	gdb := db.GetDb()
	now := time.Now()
	enrollment := &models.Enrollment{
		UserID:      userId,
		CourseID:    courseId,
		Reference:   reference,
		Status:      types.ENROLLMENT_ACTIVE,
		ActivatedAt: &now,
	}
	res := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(enrollment)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return GetEnrollment(userId, courseId)
	}
	return enrollment, nil
}

func GetEnrollment(userId uint, courseId uint) (*models.Enrollment, error) {
	gdb := db.GetDb()
	var enrollment models.Enrollment
	err := gdb.
		Model(&models.Enrollment{}).
		Where(&models.Enrollment{UserID: userId, CourseID: courseId}).
		First(&enrollment).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &enrollment, nil
}

// RefundTransaction handles a provider-reported refund: the status
// moves successful→refunded and the enrollment is revoked. Access is
// disabled but the row, and any progress hanging off it, survives.
func RefundTransaction(reference string) (*VerifyOutput, error) {
	applied, txn, err := TransitionTransaction(reference, types.TRANSACTION_SUCCESSFUL, types.TRANSACTION_REFUNDED, nil)
	if err != nil {
		return nil, err
	}
	if applied {
		gdb := db.GetDb()
		if err := gdb.
			Model(&models.Enrollment{}).
			Where(&models.Enrollment{UserID: txn.UserID, CourseID: txn.CourseID}).
			Update("status", types.ENROLLMENT_REVOKED).
			Error; err != nil {
			log.Printf("[Refund] Error revoking enrollment for [%s]: %s\n", reference, err.Error())
		}
		go func() {
			if err := lib.KafkaProduceMessage("paymentsProducer", lib.TopicTransactionUpdates, map[string]any{
				"source":    "transaction.refunded",
				"reference": reference,
				"status":    types.TRANSACTION_REFUNDED,
			}); err != nil {
				log.Printf("Error sending message to queue: %s\n", err.Error())
			}
		}()
	}
	// A replayed refund reads back as refunded too, so both the winner
	// and any later duplicate report the refund as processed.
	outcome := types.VERIFY_FAILED
	if txn != nil && txn.Status == types.TRANSACTION_REFUNDED {
		outcome = types.VERIFY_REFUNDED
	}
	return &VerifyOutput{Outcome: outcome, Transaction: txn}, nil
}

func afterSettlement(txn *models.Transaction) {
	go func() {
		if err := lib.KafkaProduceMessage("paymentsProducer", lib.TopicTransactionUpdates, map[string]any{
			"source":    "transaction.settled",
			"reference": txn.Reference,
			"status":    types.TRANSACTION_SUCCESSFUL,
			"course_id": txn.CourseID,
			"user_id":   txn.UserID,
		}); err != nil {
			log.Printf("Error sending message to queue: %s\n", err.Error())
		}
	}()
	go func() {
		if os.Getenv("SMTP_HOST") == "" {
			return
		}
		gdb := db.GetDb()
		var user models.User
		var course models.Course
		if err := gdb.First(&user, txn.UserID).Error; err != nil {
			log.Printf("Could not load user %d for receipt: %s\n", txn.UserID, err.Error())
			return
		}
		if err := gdb.First(&course, txn.CourseID).Error; err != nil {
			log.Printf("Could not load course %d for receipt: %s\n", txn.CourseID, err.Error())
			return
		}
		if err := lib.SendEnrollmentReceipt(user.Email, course.Title, txn.Reference); err != nil {
			log.Printf("Receipt email for [%s] not sent: %s\n", txn.Reference, err.Error())
		}
	}()
}
