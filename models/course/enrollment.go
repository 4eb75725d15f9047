package course

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCancelled = "CANCELLED"
	EnrollmentRefunded  = "REFUNDED"
)

// Enrollment grants a user access to a course's content
type Enrollment struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID    uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	Status      string     `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, CANCELLED, REFUNDED
	EnrolledAt  time.Time  `json:"enrolled_at"`
	Progress    float64    `json:"progress" gorm:"default:0"` // cached completion percentage (0-100)
	CompletedAt *time.Time `json:"completed_at"`              // first time progress reached 100
	PaymentID   string     `json:"payment_id"`
}
