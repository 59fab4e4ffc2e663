package models

import (
	"time"

	"lms/src/types"

	"github.com/google/uuid"
)

// Enrollment grants a user access to a course. The (user_id, course_id)
// pair is unique, which is what makes settlement idempotent even if the
// same course were ever paid for through two different transactions.
// Rows are never deleted; a refund flips Status to revoked.
type Enrollment struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	UserID      uint                   `gorm:"uniqueIndex:idx_enrollments_user_course;not null" json:"user_id"`
	CourseID    uint                   `gorm:"uniqueIndex:idx_enrollments_user_course;not null" json:"course_id"`
	Reference   string                 `json:"reference,omitempty"`
	Status      types.EnrollmentStatus `gorm:"default:'active'" json:"status"`
	ActivatedAt *time.Time             `json:"activated_at,omitempty"`

	User   User   `gorm:"foreignKey:user_id" json:"-"`
	Course Course `gorm:"foreignKey:course_id" json:"course,omitempty"`

	types.Timestamps
}
