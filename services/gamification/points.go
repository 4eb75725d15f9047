package gamification

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"learnhub/models"
	gm "learnhub/models/gamification"
	"learnhub/services/apperr"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BasePoints is the value awarded when a caller does not override it.
var BasePoints = map[gm.TransactionType]int{
	gm.TransactionLessonCompleted: 10,
	gm.TransactionCourseCompleted: 100,
	gm.TransactionReviewWritten:   15,
	gm.TransactionDailyLogin:      5,
	gm.TransactionStreakBonus:     20,
	gm.TransactionFirstTimeBonus:  50,
	gm.TransactionBadgeEarned:     25,
	gm.TransactionAdminAdjustment: 0,
}

// categoryColumn maps a transaction type to the one subtotal it feeds.
// Types missing here only move the total.
var categoryColumn = map[gm.TransactionType]string{
	gm.TransactionLessonCompleted: "lesson_points",
	gm.TransactionCourseCompleted: "course_points",
	gm.TransactionDailyLogin:      "streak_points",
	gm.TransactionStreakBonus:     "streak_points",
	gm.TransactionBadgeEarned:     "badge_points",
	gm.TransactionReviewWritten:   "review_points",
}

var defaultDescriptions = map[gm.TransactionType]string{
	gm.TransactionLessonCompleted: "Lesson completed",
	gm.TransactionCourseCompleted: "Course completed",
	gm.TransactionReviewWritten:   "Review written",
	gm.TransactionDailyLogin:      "Daily login",
	gm.TransactionStreakBonus:     "Streak bonus",
	gm.TransactionFirstTimeBonus:  "Welcome bonus",
	gm.TransactionBadgeEarned:     "Badge earned",
	gm.TransactionAdminAdjustment: "Manual adjustment",
}

type AwardRequest struct {
	UserID      uint
	Type        gm.TransactionType
	Description string
	// Points overrides BasePoints when set.
	Points   *int
	Metadata map[string]any
}

type AwardResult struct {
	Transaction gm.PointTransaction `json:"transaction"`
	Points      gm.UserPoints       `json:"points"`
	NewBadges   []gm.Badge          `json:"newBadges,omitempty"`
}

// LevelFor returns floor(sqrt(total/100)) + 1. Non-positive totals are level 1.
func LevelFor(total int) int {
	if total <= 0 {
		return 1
	}
	q := total / 100
	r := int(math.Sqrt(float64(q)))
	for r*r > q {
		r--
	}
	for (r+1)*(r+1) <= q {
		r++
	}
	return r + 1
}

// PointsForLevel is the cumulative total needed to reach level n.
func PointsForLevel(n int) int {
	if n <= 1 {
		return 0
	}
	return (n - 1) * (n - 1) * 100
}

func applyLevel(up *gm.UserPoints) {
	up.Level = LevelFor(up.TotalPoints)
	up.CurrentLevelPoints = up.TotalPoints - PointsForLevel(up.Level)
	up.PointsToNextLevel = PointsForLevel(up.Level+1) - up.TotalPoints
}

// Award appends a ledger row and folds it into the user's aggregate. Every
// call awards again; callers guard against double awards.
func (s *Service) Award(ctx context.Context, req AwardRequest) (*AwardResult, error) {
	var res *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.AwardTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AwardTx is Award inside a caller-owned transaction.
func (s *Service) AwardTx(ctx context.Context, tx *gorm.DB, req AwardRequest) (*AwardResult, error) {
	tx = tx.WithContext(ctx)

	base, known := BasePoints[req.Type]
	if !known {
		return nil, apperr.New(apperr.Internal, fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	points := base
	if req.Points != nil {
		points = *req.Points
	}
	desc := req.Description
	if desc == "" {
		desc = defaultDescriptions[req.Type]
	}

	var meta datatypes.JSON
	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, apperr.Wrap(err, "encode point metadata")
		}
		meta = raw
	}

	txn := gm.PointTransaction{
		UserID:      req.UserID,
		Points:      points,
		Type:        req.Type,
		Description: desc,
		Metadata:    meta,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("insert point transaction: %w", err), "failed to award points")
	}

	seed := gm.UserPoints{UserID: req.UserID, Level: 1, PointsToNextLevel: PointsForLevel(2)}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("seed user points: %w", err), "failed to award points")
	}

	updates := map[string]interface{}{
		"total_points": gorm.Expr("total_points + ?", points),
	}
	if col, ok := categoryColumn[req.Type]; ok {
		updates[col] = gorm.Expr(col+" + ?", points)
	}
	if err := tx.Model(&gm.UserPoints{}).Where("user_id = ?", req.UserID).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("increment user points: %w", err), "failed to award points")
	}

	var up gm.UserPoints
	if err := tx.Where("user_id = ?", req.UserID).First(&up).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("reload user points: %w", err), "failed to award points")
	}
	applyLevel(&up)
	if err := tx.Model(&up).Updates(map[string]interface{}{
		"level":                up.Level,
		"current_level_points": up.CurrentLevelPoints,
		"points_to_next_level": up.PointsToNextLevel,
	}).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("update level: %w", err), "failed to award points")
	}

	s.log.Debug("points awarded", "userId", req.UserID, "type", req.Type, "points", points, "total", up.TotalPoints)
	return &AwardResult{Transaction: txn, Points: up}, nil
}

// Summary returns the user's aggregate, or a level-1 zero row if they have none.
func (s *Service) Summary(ctx context.Context, userID uint) (*gm.UserPoints, error) {
	var up gm.UserPoints
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&up).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load points")
	}
	if up.ID == 0 {
		up = gm.UserPoints{UserID: userID}
		applyLevel(&up)
	}
	return &up, nil
}

func (s *Service) History(ctx context.Context, userID uint, page, limit int) ([]gm.PointTransaction, int64, error) {
	page, limit = normalizePage(page, limit)
	db := s.db.WithContext(ctx).Model(&gm.PointTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, "failed to count point history")
	}
	var rows []gm.PointTransaction
	if err := db.Order("created_at desc, id desc").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, apperr.Wrap(err, "failed to load point history")
	}
	return rows, total, nil
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      uint   `json:"userId"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var rows []LeaderboardEntry
	err := s.db.WithContext(ctx).
		Table("user_points").
		Select("user_points.user_id, users.name, user_points.total_points, user_points.level").
		Joins("JOIN users ON users.id = user_points.user_id AND users.deleted_at IS NULL").
		Where("users.is_deleted = ? AND users.role <> ?", false, models.RoleAdmin).
		Order("user_points.total_points desc, user_points.user_id asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load leaderboard")
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// Adjust records an admin correction. Negative values are allowed.
func (s *Service) Adjust(ctx context.Context, userID uint, points int, reason string) (*AwardResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewNotFound("User not found!")
		}
		return nil, apperr.Wrap(err, "failed to load user")
	}
	res, err := s.Award(ctx, AwardRequest{
		UserID:      userID,
		Type:        gm.TransactionAdminAdjustment,
		Description: reason,
		Points:      &points,
	})
	if err != nil {
		return nil, err
	}
	// A raised total can satisfy TOTAL_POINTS badges.
	res.NewBadges, err = s.CheckAndAwardBadges(ctx, userID)
	if err != nil {
		s.log.Warn("badge check after adjustment failed", "userId", userID, "error", err)
	}
	return res, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
