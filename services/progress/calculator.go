package progress

import (
	"context"
	"fmt"
	"math"

	courseModels "learnhub/models/course"
	"learnhub/services/apperr"

	"gorm.io/gorm"
)

// CertificateThreshold is the completion percentage that unlocks a certificate.
const CertificateThreshold = 80

type Completion struct {
	CourseID         uint `json:"courseId"`
	CompletedLessons int  `json:"completedLessons"`
	TotalLessons     int  `json:"totalLessons"`
	// Percentage is rounded to the nearest whole number for display.
	Percentage int `json:"percentage"`
}

// Reached reports whether at least pct percent of the lessons are complete,
// using the exact ratio rather than the rounded Percentage.
func (c Completion) Reached(pct int) bool {
	if c.TotalLessons == 0 {
		return false
	}
	return c.CompletedLessons*100 >= pct*c.TotalLessons
}

// LessonsToReach is how many more lessons must be completed to reach pct.
func (c Completion) LessonsToReach(pct int) int {
	need := (pct*c.TotalLessons+99)/100 - c.CompletedLessons
	if need < 0 {
		return 0
	}
	return need
}

func (c Completion) IsFull() bool {
	return c.TotalLessons > 0 && c.CompletedLessons >= c.TotalLessons
}

func newCompletion(courseID uint, completed, total int64) Completion {
	c := Completion{CourseID: courseID, CompletedLessons: int(completed), TotalLessons: int(total)}
	if total > 0 {
		c.Percentage = int(math.Round(float64(completed) * 100 / float64(total)))
	}
	return c
}

// publishedLessons selects ids of lessons that are published, sit in a
// published module and belong to courseID.
func publishedLessons(db *gorm.DB, courseID uint) *gorm.DB {
	return db.Model(&courseModels.Lesson{}).
		Select("lessons.id").
		Joins("JOIN modules ON modules.id = lessons.module_id AND modules.deleted_at IS NULL").
		Where("lessons.course_id = ? AND lessons.is_published = ? AND lessons.is_deleted = ?", courseID, true, false).
		Where("modules.course_id = ? AND modules.is_published = ? AND modules.is_deleted = ?", courseID, true, false)
}

func loadCourse(db *gorm.DB, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewNotFound("Course not found!")
		}
		return nil, apperr.Wrap(fmt.Errorf("load course %d: %w", courseID, err), "failed to load course")
	}
	return &course, nil
}

func completionFor(db *gorm.DB, userID uint, course *courseModels.Course) (Completion, error) {
	if !course.IsPublished {
		return newCompletion(course.ID, 0, 0), nil
	}

	var total int64
	if err := publishedLessons(db, course.ID).Count(&total).Error; err != nil {
		return Completion{}, apperr.Wrap(fmt.Errorf("count published lessons: %w", err), "failed to compute completion")
	}
	if total == 0 {
		return newCompletion(course.ID, 0, 0), nil
	}

	var completed int64
	err := db.Model(&courseModels.ProgressRecord{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Where("lesson_id IN (?)", publishedLessons(db, course.ID)).
		Count(&completed).Error
	if err != nil {
		return Completion{}, apperr.Wrap(fmt.Errorf("count completed lessons: %w", err), "failed to compute completion")
	}
	return newCompletion(course.ID, completed, total), nil
}

// CourseCompletion is a pure read of how much of a course the user finished.
// It does not require an enrollment.
func (s *Service) CourseCompletion(ctx context.Context, userID, courseID uint) (Completion, error) {
	db := s.db.WithContext(ctx)
	course, err := loadCourse(db, courseID)
	if err != nil {
		return Completion{}, err
	}
	return completionFor(db, userID, course)
}
