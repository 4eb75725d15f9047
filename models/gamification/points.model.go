package gamification

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionType defines why points were awarded
type TransactionType string

const (
	TransactionLessonCompleted TransactionType = "LESSON_COMPLETED"
	TransactionCourseCompleted TransactionType = "COURSE_COMPLETED"
	TransactionReviewWritten   TransactionType = "REVIEW_WRITTEN"
	TransactionDailyLogin      TransactionType = "DAILY_LOGIN"
	TransactionStreakBonus     TransactionType = "STREAK_BONUS"
	TransactionFirstTimeBonus  TransactionType = "FIRST_TIME_BONUS"
	TransactionBadgeEarned     TransactionType = "BADGE_EARNED"
	TransactionAdminAdjustment TransactionType = "ADMIN_ADJUSTMENT"
)

// PointTransaction is the append-only point ledger. Rows are never updated.
type PointTransaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"userId"`
	Points      int             `gorm:"not null" json:"points"`
	Type        TransactionType `gorm:"type:varchar(50);not null;index" json:"type"`
	Description string          `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSON  `json:"metadata"`
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}

// UserPoints aggregates a user's PointTransaction rows.
type UserPoints struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;uniqueIndex" json:"userId"`
	TotalPoints        int       `gorm:"default:0;index" json:"totalPoints"`
	LessonPoints       int       `gorm:"default:0" json:"lessonPoints"`
	CoursePoints       int       `gorm:"default:0" json:"coursePoints"`
	StreakPoints       int       `gorm:"default:0" json:"streakPoints"`
	BadgePoints        int       `gorm:"default:0" json:"badgePoints"`
	ReviewPoints       int       `gorm:"default:0" json:"reviewPoints"`
	Level              int       `gorm:"default:1" json:"level"`
	CurrentLevelPoints int       `gorm:"default:0" json:"currentLevelPoints"`
	PointsToNextLevel  int       `gorm:"default:100" json:"pointsToNextLevel"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (UserPoints) TableName() string {
	return "user_points"
}
