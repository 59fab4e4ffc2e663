package models

import (
	"lms/src/types"
)

type User struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	Name          string `json:"name,omitempty"`
	Email         string `gorm:"uniqueIndex" json:"email,omitempty"`
	Role          string `gorm:"default:'student'" json:"role,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`

	Enrollments []Enrollment `gorm:"foreignKey:user_id" json:"enrollments,omitempty"`

	types.Timestamps
}
