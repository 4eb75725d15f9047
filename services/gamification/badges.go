package gamification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	courseModels "learnhub/models/course"
	gm "learnhub/models/gamification"
	"learnhub/services/apperr"
	"learnhub/services/events"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStats is the aggregate every badge condition is evaluated against.
type UserStats struct {
	LessonsCompleted   int `json:"lessonsCompleted"`
	CoursesCompleted   int `json:"coursesCompleted"`
	TotalPoints        int `json:"totalPoints"`
	CurrentStreak      int `json:"currentStreak"`
	ReviewsWritten     int `json:"reviewsWritten"`
	CertificatesEarned int `json:"certificatesEarned"`
}

// evaluator reports whether stats satisfy a condition. threshold is the
// badge's ConditionValue and may be nil.
type evaluator func(stats UserStats, threshold *int) bool

func atLeast(metric func(UserStats) int) evaluator {
	return func(stats UserStats, threshold *int) bool {
		if threshold == nil {
			return false
		}
		return metric(stats) >= *threshold
	}
}

func firstOf(metric func(UserStats) int) evaluator {
	return func(stats UserStats, _ *int) bool {
		return metric(stats) >= 1
	}
}

// evaluators holds every condition the awarder knows how to check. PERFECT_COURSE,
// NIGHT_OWL, EARLY_BIRD and WEEKEND_WARRIOR are deliberately absent.
var evaluators = map[gm.BadgeCondition]evaluator{
	gm.ConditionFirstLesson:        firstOf(func(s UserStats) int { return s.LessonsCompleted }),
	gm.ConditionFirstCourse:        firstOf(func(s UserStats) int { return s.CoursesCompleted }),
	gm.ConditionLessonsCompleted:   atLeast(func(s UserStats) int { return s.LessonsCompleted }),
	gm.ConditionCoursesCompleted:   atLeast(func(s UserStats) int { return s.CoursesCompleted }),
	gm.ConditionTotalPoints:        atLeast(func(s UserStats) int { return s.TotalPoints }),
	gm.ConditionStreakDays:         atLeast(func(s UserStats) int { return s.CurrentStreak }),
	gm.ConditionReviewsWritten:     atLeast(func(s UserStats) int { return s.ReviewsWritten }),
	gm.ConditionCertificatesEarned: atLeast(func(s UserStats) int { return s.CertificatesEarned }),
}

// Supported reports whether cond has evaluation logic.
func Supported(cond gm.BadgeCondition) bool {
	_, ok := evaluators[cond]
	return ok
}

func needsThreshold(cond gm.BadgeCondition) bool {
	return cond != gm.ConditionFirstLesson && cond != gm.ConditionFirstCourse
}

// Stats gathers the counters badge conditions read.
func (s *Service) Stats(ctx context.Context, userID uint) (UserStats, error) {
	db := s.db.WithContext(ctx)
	var stats UserStats
	var n int64

	if err := db.Model(&courseModels.ProgressRecord{}).Where("user_id = ? AND is_completed = ?", userID, true).Count(&n).Error; err != nil {
		return stats, fmt.Errorf("count lessons: %w", err)
	}
	stats.LessonsCompleted = int(n)

	if err := db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND completed_at IS NOT NULL", userID).Count(&n).Error; err != nil {
		return stats, fmt.Errorf("count courses: %w", err)
	}
	stats.CoursesCompleted = int(n)

	if err := db.Model(&courseModels.Review{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return stats, fmt.Errorf("count reviews: %w", err)
	}
	stats.ReviewsWritten = int(n)

	if err := db.Model(&courseModels.Certificate{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return stats, fmt.Errorf("count certificates: %w", err)
	}
	stats.CertificatesEarned = int(n)

	var up gm.UserPoints
	if err := db.Where("user_id = ?", userID).Limit(1).Find(&up).Error; err != nil {
		return stats, fmt.Errorf("load points: %w", err)
	}
	stats.TotalPoints = up.TotalPoints

	var streak gm.Streak
	if err := db.Where("user_id = ?", userID).Limit(1).Find(&streak).Error; err != nil {
		return stats, fmt.Errorf("load streak: %w", err)
	}
	stats.CurrentStreak = streak.CurrentStreak

	return stats, nil
}

var errAlreadyHeld = errors.New("badge already held")

// CheckAndAwardBadges grants every active, unheld badge whose condition holds
// right now. Points from a grant do not trigger further grants in the same call.
func (s *Service) CheckAndAwardBadges(ctx context.Context, userID uint) ([]gm.Badge, error) {
	db := s.db.WithContext(ctx)

	held := db.Model(&gm.UserBadge{}).Select("badge_id").Where("user_id = ?", userID)
	var candidates []gm.Badge
	if err := db.Where("is_active = ?", true).Where("id NOT IN (?)", held).Order("id asc").Find(&candidates).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("load candidate badges: %w", err), "failed to check badges")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to check badges")
	}

	var granted []gm.Badge
	for _, badge := range candidates {
		eval, ok := evaluators[badge.Condition]
		if !ok || !eval(stats, badge.ConditionValue) {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			ub := gm.UserBadge{UserID: userID, BadgeID: badge.ID, EarnedAt: time.Now()}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ub)
			if res.Error != nil {
				return fmt.Errorf("insert user badge: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return errAlreadyHeld
			}
			points := badge.Points
			_, err := s.AwardTx(ctx, tx, AwardRequest{
				UserID:      userID,
				Type:        gm.TransactionBadgeEarned,
				Description: fmt.Sprintf("Earned badge: %s", badge.Name),
				Points:      &points,
				Metadata:    map[string]any{"badgeId": badge.ID},
			})
			return err
		})
		if errors.Is(err, errAlreadyHeld) {
			continue
		}
		if err != nil {
			return granted, apperr.Wrap(err, "failed to grant badge")
		}

		s.log.Info("badge granted", "userId", userID, "badge", badge.Name)
		s.pub.Publish(events.Event{
			Type:   events.BadgeEarned,
			UserID: userID,
			Data: map[string]any{
				"badgeId":   badge.ID,
				"badgeName": badge.Name,
				"points":    badge.Points,
			},
		})
		granted = append(granted, badge)
	}
	return granted, nil
}

type CreateBadgeInput struct {
	Name           string
	Description    string
	Icon           string
	Rarity         gm.BadgeRarity
	Points         int
	Condition      gm.BadgeCondition
	ConditionValue *int
}

// CreateBadge adds a catalog entry. Conditions without evaluation logic are rejected.
func (s *Service) CreateBadge(ctx context.Context, in CreateBadgeInput) (*gm.Badge, error) {
	if !Supported(in.Condition) {
		return nil, apperr.NewIneligible("Badge condition is not supported!").
			WithDetails(map[string]any{"condition": in.Condition})
	}
	if needsThreshold(in.Condition) && (in.ConditionValue == nil || *in.ConditionValue < 1) {
		return nil, apperr.NewIneligible("Condition value must be at least 1 for this condition!")
	}
	if in.Rarity == "" {
		in.Rarity = gm.RarityCommon
	}

	db := s.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&gm.Badge{}).Where("LOWER(name) = ?", strings.ToLower(in.Name)).Count(&existing).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create badge")
	}
	if existing > 0 {
		return nil, apperr.NewConflict("A badge with this name already exists!")
	}

	badge := gm.Badge{
		Name:           in.Name,
		Description:    in.Description,
		Icon:           in.Icon,
		Rarity:         in.Rarity,
		Points:         in.Points,
		Condition:      in.Condition,
		ConditionValue: in.ConditionValue,
		IsActive:       true,
	}
	if err := db.Create(&badge).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to create badge")
	}
	return &badge, nil
}

func (s *Service) ListBadges(ctx context.Context) ([]gm.Badge, error) {
	var badges []gm.Badge
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id asc").Find(&badges).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load badges")
	}
	return badges, nil
}

func (s *Service) UserBadges(ctx context.Context, userID uint) ([]gm.UserBadge, error) {
	var rows []gm.UserBadge
	if err := s.db.WithContext(ctx).Preload("Badge").Where("user_id = ?", userID).Order("earned_at desc").Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load user badges")
	}
	return rows, nil
}

func intPtr(v int) *int { return &v }

// DefaultBadges is the catalog seeded on first start.
var DefaultBadges = []gm.Badge{
	{Name: "First Steps", Description: "Complete your first lesson", Icon: "footprints", Rarity: gm.RarityCommon, Points: 10, Condition: gm.ConditionFirstLesson},
	{Name: "Course Finisher", Description: "Complete your first course", Icon: "flag", Rarity: gm.RarityRare, Points: 50, Condition: gm.ConditionFirstCourse},
	{Name: "Dedicated Learner", Description: "Complete 10 lessons", Icon: "book", Rarity: gm.RarityCommon, Points: 25, Condition: gm.ConditionLessonsCompleted, ConditionValue: intPtr(10)},
	{Name: "Scholar", Description: "Complete 50 lessons", Icon: "books", Rarity: gm.RarityEpic, Points: 100, Condition: gm.ConditionLessonsCompleted, ConditionValue: intPtr(50)},
	{Name: "Knowledge Seeker", Description: "Complete 5 courses", Icon: "graduation-cap", Rarity: gm.RarityEpic, Points: 150, Condition: gm.ConditionCoursesCompleted, ConditionValue: intPtr(5)},
	{Name: "Week Warrior", Description: "Keep a 7 day streak", Icon: "fire", Rarity: gm.RarityRare, Points: 50, Condition: gm.ConditionStreakDays, ConditionValue: intPtr(7)},
	{Name: "Unstoppable", Description: "Keep a 30 day streak", Icon: "rocket", Rarity: gm.RarityLegendary, Points: 300, Condition: gm.ConditionStreakDays, ConditionValue: intPtr(30)},
	{Name: "Point Collector", Description: "Earn 1000 points", Icon: "star", Rarity: gm.RarityRare, Points: 50, Condition: gm.ConditionTotalPoints, ConditionValue: intPtr(1000)},
	{Name: "Critic", Description: "Write 5 reviews", Icon: "pen", Rarity: gm.RarityCommon, Points: 25, Condition: gm.ConditionReviewsWritten, ConditionValue: intPtr(5)},
	{Name: "Certified", Description: "Earn your first certificate", Icon: "certificate", Rarity: gm.RarityRare, Points: 50, Condition: gm.ConditionCertificatesEarned, ConditionValue: intPtr(1)},
}

// SeedDefaultBadges inserts DefaultBadges, leaving existing names untouched.
func (s *Service) SeedDefaultBadges(ctx context.Context) error {
	badges := make([]gm.Badge, len(DefaultBadges))
	copy(badges, DefaultBadges)
	for i := range badges {
		badges[i].IsActive = true
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&badges).Error
	if err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	return nil
}
