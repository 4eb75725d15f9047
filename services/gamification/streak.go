package gamification

import (
	"context"
	"fmt"
	"time"

	gm "learnhub/models/gamification"
	"learnhub/services/apperr"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

type StreakOutcome string

const (
	StreakUnchanged StreakOutcome = "UNCHANGED"
	StreakExtended  StreakOutcome = "EXTENDED"
	StreakStarted   StreakOutcome = "STARTED"
)

// streakBonusEvery is the streak length that earns a STREAK_BONUS.
const streakBonusEvery = 7

type StreakResult struct {
	Streak        gm.Streak     `json:"streak"`
	Outcome       StreakOutcome `json:"outcome"`
	PointsAwarded int           `json:"pointsAwarded"`
	NewBadges     []gm.Badge    `json:"newBadges"`
}

// daysBetween counts calendar days from a to b, both already cut to midnight.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func (s *Service) today() time.Time {
	return now.With(s.now().In(s.loc)).BeginningOfDay()
}

// UpdateStreak records today's activity for the user. Calls are serialized
// per user; repeated calls on the same day change nothing.
func (s *Service) UpdateStreak(ctx context.Context, userID uint) (*StreakResult, error) {
	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("streak:%d", userID))
	if err != nil {
		return nil, apperr.Wrap(err, "failed to acquire streak lock")
	}
	defer unlock()

	today := s.today()
	res := &StreakResult{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var streak gm.Streak
		if err := tx.Where("user_id = ?", userID).Limit(1).Find(&streak).Error; err != nil {
			return fmt.Errorf("load streak: %w", err)
		}

		hasLast := streak.ID != 0 && streak.LastActivityDate != nil
		diff := 0
		if hasLast {
			last := now.With(streak.LastActivityDate.In(s.loc)).BeginningOfDay()
			diff = daysBetween(last, today)
		}

		switch {
		case !hasLast || diff > 1:
			streak.UserID = userID
			streak.CurrentStreak = 1
			if streak.LongestStreak < 1 {
				streak.LongestStreak = 1
			}
			streak.StreakStartDate = &today
			res.Outcome = StreakStarted
		case diff == 1:
			streak.CurrentStreak++
			if streak.CurrentStreak > streak.LongestStreak {
				streak.LongestStreak = streak.CurrentStreak
			}
			res.Outcome = StreakExtended
		default:
			// already counted today, or the stored day is ahead of our clock
			res.Outcome = StreakUnchanged
			res.Streak = streak
			return nil
		}
		streak.LastActivityDate = &today

		if err := tx.Save(&streak).Error; err != nil {
			return fmt.Errorf("save streak: %w", err)
		}
		res.Streak = streak

		awarded, err := s.AwardTx(ctx, tx, AwardRequest{
			UserID:      userID,
			Type:        gm.TransactionDailyLogin,
			Description: fmt.Sprintf("Daily login (day %d)", streak.CurrentStreak),
			Metadata:    map[string]any{"streak": streak.CurrentStreak},
		})
		if err != nil {
			return err
		}
		res.PointsAwarded += awarded.Transaction.Points

		if res.Outcome == StreakExtended && streak.CurrentStreak%streakBonusEvery == 0 {
			bonus, err := s.AwardTx(ctx, tx, AwardRequest{
				UserID:      userID,
				Type:        gm.TransactionStreakBonus,
				Description: fmt.Sprintf("%d day streak bonus", streak.CurrentStreak),
				Metadata:    map[string]any{"streak": streak.CurrentStreak},
			})
			if err != nil {
				return err
			}
			res.PointsAwarded += bonus.Transaction.Points
		}
		return nil
	})
	if err != nil {
		s.log.Error("streak update failed", "userId", userID, "error", err)
		return nil, apperr.Wrap(err, "failed to update streak")
	}

	if res.Outcome != StreakUnchanged {
		badges, err := s.CheckAndAwardBadges(ctx, userID)
		if err != nil {
			s.log.Warn("badge check after streak failed", "userId", userID, "error", err)
		}
		res.NewBadges = badges
	}
	return res, nil
}

func (s *Service) GetStreak(ctx context.Context, userID uint) (*gm.Streak, error) {
	var streak gm.Streak
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&streak).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load streak")
	}
	streak.UserID = userID
	return &streak, nil
}

// AtRiskUserIDs lists users whose streak is still alive but who have no
// activity today.
func (s *Service) AtRiskUserIDs(ctx context.Context) ([]uint, error) {
	today := s.today()
	yesterday := today.AddDate(0, 0, -1)
	var ids []uint
	err := s.db.WithContext(ctx).Model(&gm.Streak{}).
		Where("current_streak > 0 AND last_activity_date >= ? AND last_activity_date < ?", yesterday, today).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("find at-risk streaks: %w", err)
	}
	return ids, nil
}
