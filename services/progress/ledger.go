// Package progress tracks per-lesson progress and derives course completion.
package progress

import (
	"context"
	"fmt"
	"time"

	"learnhub/logger"
	courseModels "learnhub/models/course"
	gm "learnhub/models/gamification"
	"learnhub/services/apperr"
	"learnhub/services/gamification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Awarder is the slice of the gamification service progress needs.
type Awarder interface {
	AwardTx(ctx context.Context, tx *gorm.DB, req gamification.AwardRequest) (*gamification.AwardResult, error)
	CheckAndAwardBadges(ctx context.Context, userID uint) ([]gm.Badge, error)
}

type Service struct {
	db      *gorm.DB
	log     *logger.Logger
	awarder Awarder
}

func New(db *gorm.DB, log *logger.Logger, awarder Awarder) *Service {
	return &Service{db: db, log: log.Service("ProgressService"), awarder: awarder}
}

type LessonResult struct {
	Completion       Completion `json:"completion"`
	AlreadyCompleted bool       `json:"alreadyCompleted"`
	CourseCompleted  bool       `json:"courseCompleted"`
	PointsAwarded    int        `json:"pointsAwarded"`
	NewBadges        []gm.Badge `json:"newBadges"`
}

// loadLearnable returns a visible lesson together with the caller's active enrollment.
func loadLearnable(db *gorm.DB, userID, lessonID uint) (*courseModels.Lesson, *courseModels.Course, *courseModels.Enrollment, error) {
	var lesson courseModels.Lesson
	err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", lessonID, true, false).First(&lesson).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, apperr.NewNotFound("Lesson not found!")
		}
		return nil, nil, nil, apperr.Wrap(err, "failed to load lesson")
	}

	var module courseModels.Module
	err = db.Where("id = ? AND course_id = ? AND is_published = ? AND is_deleted = ?", lesson.ModuleID, lesson.CourseID, true, false).First(&module).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, apperr.NewNotFound("Lesson not found!")
		}
		return nil, nil, nil, apperr.Wrap(err, "failed to load module")
	}

	course, err := loadCourse(db, lesson.CourseID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !course.IsPublished {
		return nil, nil, nil, apperr.NewNotFound("Lesson not found!")
	}

	var enrollment courseModels.Enrollment
	err = db.Where("user_id = ? AND course_id = ? AND status = ?", userID, course.ID, courseModels.EnrollmentActive).First(&enrollment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, apperr.NewNotFound("You are not enrolled in this course!")
		}
		return nil, nil, nil, apperr.Wrap(err, "failed to load enrollment")
	}
	return &lesson, course, &enrollment, nil
}

func ensureRecord(tx *gorm.DB, userID uint, lesson *courseModels.Lesson) error {
	rec := courseModels.ProgressRecord{UserID: userID, LessonID: lesson.ID, CourseID: lesson.CourseID}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(&rec).Error
}

// MarkLessonComplete completes a lesson once. The first completion awards
// LESSON_COMPLETED, refreshes the enrollment's cached progress and, when the
// course reaches 100% for the first time, awards COURSE_COMPLETED. Later calls
// only report the current completion.
func (s *Service) MarkLessonComplete(ctx context.Context, userID, lessonID uint) (*LessonResult, error) {
	db := s.db.WithContext(ctx)
	lesson, course, enrollment, err := loadLearnable(db, userID, lessonID)
	if err != nil {
		return nil, err
	}

	res := &LessonResult{}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureRecord(tx, userID, lesson); err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		completedAt := time.Now()
		upd := tx.Model(&courseModels.ProgressRecord{}).
			Where("user_id = ? AND lesson_id = ? AND is_completed = ?", userID, lesson.ID, false).
			Updates(map[string]interface{}{"is_completed": true, "completed_at": completedAt})
		if upd.Error != nil {
			return fmt.Errorf("complete progress: %w", upd.Error)
		}
		if upd.RowsAffected == 0 {
			res.AlreadyCompleted = true
			return nil
		}

		awarded, err := s.awarder.AwardTx(ctx, tx, gamification.AwardRequest{
			UserID:      userID,
			Type:        gm.TransactionLessonCompleted,
			Description: fmt.Sprintf("Completed lesson: %s", lesson.Title),
			Metadata:    map[string]any{"lessonId": lesson.ID, "courseId": course.ID},
		})
		if err != nil {
			return err
		}
		res.PointsAwarded += awarded.Transaction.Points

		completion, err := completionFor(tx, userID, course)
		if err != nil {
			return err
		}
		res.Completion = completion

		if err := tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
			Update("progress", float64(completion.Percentage)).Error; err != nil {
			return fmt.Errorf("update enrollment progress: %w", err)
		}

		if !completion.IsFull() {
			return nil
		}
		stamp := tx.Model(&courseModels.Enrollment{}).
			Where("id = ? AND completed_at IS NULL", enrollment.ID).
			Update("completed_at", completedAt)
		if stamp.Error != nil {
			return fmt.Errorf("stamp enrollment completion: %w", stamp.Error)
		}
		if stamp.RowsAffected == 0 {
			return nil
		}
		res.CourseCompleted = true
		bonus, err := s.awarder.AwardTx(ctx, tx, gamification.AwardRequest{
			UserID:      userID,
			Type:        gm.TransactionCourseCompleted,
			Description: fmt.Sprintf("Completed course: %s", course.Title),
			Metadata:    map[string]any{"courseId": course.ID},
		})
		if err != nil {
			return err
		}
		res.PointsAwarded += bonus.Transaction.Points
		return nil
	})
	if err != nil {
		s.log.Error("mark lesson complete failed", "userId", userID, "lessonId", lessonID, "error", err)
		return nil, apperr.Wrap(err, "failed to complete lesson")
	}

	if res.AlreadyCompleted {
		completion, err := completionFor(db, userID, course)
		if err != nil {
			return nil, err
		}
		res.Completion = completion
		return res, nil
	}

	badges, err := s.awarder.CheckAndAwardBadges(ctx, userID)
	if err != nil {
		s.log.Warn("badge check after lesson failed", "userId", userID, "error", err)
	}
	res.NewBadges = badges
	return res, nil
}

// RecordWatchTime keeps the highest watched position reported for a lesson.
func (s *Service) RecordWatchTime(ctx context.Context, userID, lessonID uint, seconds int) (*courseModels.ProgressRecord, error) {
	db := s.db.WithContext(ctx)
	lesson, _, _, err := loadLearnable(db, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if seconds < 0 {
		seconds = 0
	}

	var rec courseModels.ProgressRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureRecord(tx, userID, lesson); err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}
		if err := tx.Model(&courseModels.ProgressRecord{}).
			Where("user_id = ? AND lesson_id = ? AND seconds_watched < ?", userID, lesson.ID, seconds).
			Update("seconds_watched", seconds).Error; err != nil {
			return fmt.Errorf("update watch time: %w", err)
		}
		return tx.Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).First(&rec).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to record watch time")
	}
	return &rec, nil
}

type CourseProgress struct {
	Completion Completion                    `json:"completion"`
	Lessons    []courseModels.ProgressRecord `json:"lessons"`
}

// CourseProgress returns completion plus the user's per-lesson records for an
// enrolled course.
func (s *Service) CourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgress, error) {
	db := s.db.WithContext(ctx)
	course, err := loadCourse(db, courseID)
	if err != nil {
		return nil, err
	}

	var n int64
	if err := db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, courseModels.EnrollmentActive).
		Count(&n).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load enrollment")
	}
	if n == 0 {
		return nil, apperr.NewNotFound("You are not enrolled in this course!")
	}

	completion, err := completionFor(db, userID, course)
	if err != nil {
		return nil, err
	}
	var records []courseModels.ProgressRecord
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).Order("lesson_id asc").Find(&records).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load progress")
	}
	return &CourseProgress{Completion: completion, Lessons: records}, nil
}
