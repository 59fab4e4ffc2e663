package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type TransactionStatus string

const (
	TRANSACTION_PENDING    TransactionStatus = "pending"
	TRANSACTION_SUCCESSFUL TransactionStatus = "successful"
	TRANSACTION_FAILED     TransactionStatus = "failed"
	TRANSACTION_REFUNDED   TransactionStatus = "refunded"
)

type EnrollmentStatus string

const (
	ENROLLMENT_ACTIVE  EnrollmentStatus = "active"
	ENROLLMENT_REVOKED EnrollmentStatus = "revoked"
)

type CourseStatus string

const (
	COURSE_DRAFT     CourseStatus = "draft"
	COURSE_PUBLISHED CourseStatus = "published"
	COURSE_ARCHIVED  CourseStatus = "archived"
)

// VerificationOutcome is what the settlement state machine reports back
// to its caller. Pending is retryable; everything else is a settled answer.
type VerificationOutcome string

const (
	VERIFY_SUCCESSFUL VerificationOutcome = "successful"
	VERIFY_FAILED     VerificationOutcome = "failed"
	VERIFY_PENDING    VerificationOutcome = "pending"
	VERIFY_MISMATCH   VerificationOutcome = "mismatch"
	VERIFY_REFUNDED   VerificationOutcome = "refunded"
	VERIFY_UNKNOWN    VerificationOutcome = "unknown"
)

type InitializePaymentRequestBody struct {
	CourseID uint `json:"course_id" binding:"required"`
}

type VerifyPaymentRequestBody struct {
	Reference   string `json:"reference,omitempty" binding:"omitempty,uuid"`
	ProviderRef string `json:"provider_ref,omitempty"`
}

type CreateCourseRequestBody struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,iso4217"`
	Publish     bool    `json:"publish,omitempty"`
}

type LoginRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type APIResponseTransaction struct {
	Reference string     `json:"reference"`
	CourseID  uint       `json:"course_id,omitempty"`
	Amount    float64    `json:"amount,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	Status    string     `json:"status"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type APIResponseEnrollment struct {
	ID          string     `json:"id,omitempty"`
	CourseID    uint       `json:"course_id"`
	Status      string     `json:"status"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
