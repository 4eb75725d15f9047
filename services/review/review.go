// Package review stores course reviews and rewards the first review of each
// course.
package review

import (
	"context"
	"errors"
	"strings"

	"learnhub/logger"
	courseModels "learnhub/models/course"
	gm "learnhub/models/gamification"
	"learnhub/services/apperr"
	"learnhub/services/gamification"
	"learnhub/services/progress"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db      *gorm.DB
	log     *logger.Logger
	awarder progress.Awarder
}

func New(db *gorm.DB, log *logger.Logger, awarder progress.Awarder) *Service {
	return &Service{db: db, log: log.Service("ReviewService"), awarder: awarder}
}

type Result struct {
	Review        courseModels.Review `json:"review"`
	PointsAwarded int                 `json:"pointsAwarded"`
	NewBadges     []gm.Badge          `json:"newBadges"`
}

// Create stores the user's review of an enrolled course. A second review of
// the same course is a Conflict.
func (s *Service) Create(ctx context.Context, userID, courseID uint, rating int, comment string) (*Result, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.NewIneligible("Rating must be between 1 and 5!")
	}
	db := s.db.WithContext(ctx)

	var enrolled int64
	if err := db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, courseModels.EnrollmentActive).
		Count(&enrolled).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load enrollment")
	}
	if enrolled == 0 {
		return nil, apperr.NewNotFound("You are not enrolled in this course!")
	}

	res := &Result{Review: courseModels.Review{
		UserID:   userID,
		CourseID: courseID,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
	}}
	err := db.Transaction(func(tx *gorm.DB) error {
		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).Create(&res.Review)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return apperr.NewConflict("You have already reviewed this course!")
		}
		awarded, err := s.awarder.AwardTx(ctx, tx, gamification.AwardRequest{
			UserID:   userID,
			Type:     gm.TransactionReviewWritten,
			Metadata: map[string]any{"courseId": courseID, "reviewId": res.Review.ID},
		})
		if err != nil {
			return err
		}
		res.PointsAwarded = awarded.Transaction.Points
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apperr.Wrap(err, "failed to save review")
	}

	badges, err := s.awarder.CheckAndAwardBadges(ctx, userID)
	if err != nil {
		s.log.Warn("badge check after review failed", "userId", userID, "error", err)
	}
	res.NewBadges = badges
	return res, nil
}

type Listing struct {
	courseModels.Review
	UserName string `json:"user_name"`
}

type Page struct {
	Reviews       []Listing `json:"reviews"`
	Total         int64     `json:"total"`
	AverageRating float64   `json:"averageRating"`
}

func (s *Service) List(ctx context.Context, courseID uint, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	db := s.db.WithContext(ctx)
	out := &Page{}

	var agg struct {
		Total int64
		Avg   float64
	}
	if err := db.Model(&courseModels.Review{}).
		Select("COUNT(*) AS total, COALESCE(AVG(rating), 0) AS avg").
		Where("course_id = ?", courseID).
		Scan(&agg).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to aggregate reviews")
	}
	out.Total, out.AverageRating = agg.Total, agg.Avg

	err := db.Model(&courseModels.Review{}).
		Select("reviews.*, users.name AS user_name").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.course_id = ?", courseID).
		Order("reviews.created_at desc, reviews.id desc").
		Offset((page - 1) * limit).Limit(limit).
		Scan(&out.Reviews).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load reviews")
	}
	return out, nil
}
