package gamification

import (
	"time"

	"gorm.io/gorm"
)

type BadgeCondition string

const (
	ConditionLessonsCompleted   BadgeCondition = "LESSONS_COMPLETED"
	ConditionCoursesCompleted   BadgeCondition = "COURSES_COMPLETED"
	ConditionStreakDays         BadgeCondition = "STREAK_DAYS"
	ConditionTotalPoints        BadgeCondition = "TOTAL_POINTS"
	ConditionReviewsWritten     BadgeCondition = "REVIEWS_WRITTEN"
	ConditionCertificatesEarned BadgeCondition = "CERTIFICATES_EARNED"
	ConditionFirstLesson        BadgeCondition = "FIRST_LESSON"
	ConditionFirstCourse        BadgeCondition = "FIRST_COURSE"
	ConditionPerfectCourse      BadgeCondition = "PERFECT_COURSE"
	ConditionNightOwl           BadgeCondition = "NIGHT_OWL"
	ConditionEarlyBird          BadgeCondition = "EARLY_BIRD"
	ConditionWeekendWarrior     BadgeCondition = "WEEKEND_WARRIOR"
)

type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "COMMON"
	RarityRare      BadgeRarity = "RARE"
	RarityEpic      BadgeRarity = "EPIC"
	RarityLegendary BadgeRarity = "LEGENDARY"
)

// Badge is an admin-managed catalog entry
type Badge struct {
	gorm.Model
	Name           string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description    string         `json:"description"`
	Icon           string         `json:"icon"`
	Rarity         BadgeRarity    `gorm:"type:varchar(20);default:'COMMON'" json:"rarity"`
	Points         int            `gorm:"default:0" json:"points"`
	Condition      BadgeCondition `gorm:"type:varchar(50);not null" json:"condition"`
	ConditionValue *int           `json:"conditionValue"`
	IsActive       bool           `gorm:"default:true" json:"isActive"`
}

// UserBadge is created once per (user, badge) and never revoked
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"userId"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badgeId"`
	EarnedAt time.Time `gorm:"not null" json:"earnedAt"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
}
