package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeEnrollment        Type = "ENROLLMENT"
	TypeCourseCompleted   Type = "COURSE_COMPLETED"
	TypeCertificateIssued Type = "CERTIFICATE_ISSUED"
	TypeNewCourse         Type = "NEW_COURSE"
	TypeBadgeEarned       Type = "BADGE_EARNED"
	TypeStreakReminder    Type = "STREAK_REMINDER"
	TypeAnnouncement      Type = "ANNOUNCEMENT"
)

type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_notification_user_read,priority:1" json:"userId"`
	Type      Type           `gorm:"type:varchar(40);not null" json:"type"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	Metadata  datatypes.JSON `json:"metadata"`
	IsRead    bool           `gorm:"default:false;index:idx_notification_user_read,priority:2" json:"isRead"`
	SentAt    time.Time      `gorm:"not null;index" json:"sentAt"`
	ReadAt    *time.Time     `json:"readAt"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Preference stores a per-type email opt-out. No row means email is enabled.
type Preference struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_notification_pref" json:"userId"`
	Type         Type      `gorm:"type:varchar(40);not null;uniqueIndex:idx_notification_pref" json:"type"`
	EmailEnabled bool      `gorm:"not null" json:"emailEnabled"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Preference) TableName() string {
	return "notification_preferences"
}
