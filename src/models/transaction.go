package models

import (
	"time"

	"lms/src/types"

	"github.com/google/uuid"
)

// Transaction is one checkout attempt. Reference is generated locally
// before the gateway ever sees the attempt and is the idempotency key
// for the whole settlement flow. Amount and Currency are fixed from the
// course price at creation time; verification only compares against
// them, it never rewrites them.
type Transaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Reference    string                  `gorm:"uniqueIndex;not null" json:"reference"`
	ProviderRef  *string                 `json:"provider_ref,omitempty"`
	CourseID     uint                    `json:"course_id"`
	UserID       uint                    `json:"user_id"`
	Amount       float64                 `json:"amount"`
	Currency     string                  `json:"currency"`
	Status       types.TransactionStatus `gorm:"default:'pending'" json:"status"`
	FraudFlagged bool                    `json:"-"`
	Metadata     types.JSONB             `json:"metadata,omitempty"`
	SettledAt    *time.Time              `json:"settled_at,omitempty"`

	Course Course `gorm:"foreignKey:course_id" json:"-"`
	User   User   `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}
