package course

import (
	"time"

	"gorm.io/gorm"
)

// Certificate represents an issued certificate for course completion.
// ValidationHash is a display token, not a signature.
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CourseID          uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CertificateNumber string    `json:"certificate_number" gorm:"uniqueIndex;size:64;not null"`
	ValidationHash    string    `json:"validation_hash" gorm:"not null"`
	IssuedAt          time.Time `json:"issued_at"`
	DownloadCount     int       `json:"download_count" gorm:"default:0"`
}
