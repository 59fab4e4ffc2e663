package models

import (
	"lms/src/types"
)

type Course struct {
	ID          uint               `gorm:"primarykey" json:"id"`
	Title       string             `json:"title,omitempty"`
	Slug        string             `gorm:"uniqueIndex" json:"slug,omitempty"`
	Description *string            `json:"description,omitempty"`
	Price       float64            `json:"price,omitempty"`
	Currency    string             `json:"currency,omitempty"`
	Status      types.CourseStatus `gorm:"default:'draft'" json:"status,omitempty"`
	CreatedBy   uint               `json:"created_by,omitempty"`

	Creator     User         `gorm:"foreignKey:created_by" json:"-"`
	Enrollments []Enrollment `gorm:"foreignKey:course_id" json:"enrollments,omitempty"`

	types.Timestamps
}
