// Package testutil opens throwaway databases and seeds fixtures for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"learnhub/database"
	"learnhub/models"
	courseModels "learnhub/models/course"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq int64

// OpenTestDB returns a migrated in-memory database private to the test.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func next() int64 { return atomic.AddInt64(&seq, 1) }

func CreateUser(t testing.TB, db *gorm.DB, role string) models.User {
	t.Helper()
	n := next()
	user := models.User{
		Name:     fmt.Sprintf("Learner %d", n),
		Email:    fmt.Sprintf("learner%d@example.com", n),
		Role:     role,
		Password: "$2a$10$placeholderplaceholderplaceholderplaceholderpl",
	}
	if role == "" {
		user.Role = models.RoleUser
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CourseFixture is a published course with one published module.
type CourseFixture struct {
	Course     courseModels.Course
	Module     courseModels.Module
	Instructor models.User
	Lessons    []courseModels.Lesson
}

// CreateCourse seeds a published course holding n published lessons.
func CreateCourse(t testing.TB, db *gorm.DB, n int, price int64) CourseFixture {
	t.Helper()
	instructor := CreateUser(t, db, models.RoleInstructor)

	course := courseModels.Course{
		Title:        fmt.Sprintf("Course %d", next()),
		Description:  "fixture",
		InstructorID: instructor.ID,
		Price:        price,
		Currency:     "INR",
		IsPublished:  true,
	}
	require.NoError(t, db.Create(&course).Error)

	module := courseModels.Module{CourseID: course.ID, Title: "Module 1", OrderIndex: 1, IsPublished: true}
	require.NoError(t, db.Create(&module).Error)

	fx := CourseFixture{Course: course, Module: module, Instructor: instructor}
	for i := 0; i < n; i++ {
		fx.Lessons = append(fx.Lessons, CreateLesson(t, db, course.ID, module.ID, true))
	}
	return fx
}

func CreateLesson(t testing.TB, db *gorm.DB, courseID, moduleID uint, published bool) courseModels.Lesson {
	t.Helper()
	lesson := courseModels.Lesson{
		CourseID:        courseID,
		ModuleID:        moduleID,
		Title:           fmt.Sprintf("Lesson %d", next()),
		DurationSeconds: 300,
	}
	require.NoError(t, db.Create(&lesson).Error)
	// gorm skips zero-value bools on create when a default tag exists
	require.NoError(t, db.Model(&lesson).Update("is_published", published).Error)
	lesson.IsPublished = published
	return lesson
}

func Enroll(t testing.TB, db *gorm.DB, userID, courseID uint) courseModels.Enrollment {
	t.Helper()
	enrollment := courseModels.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     courseModels.EnrollmentActive,
		EnrolledAt: time.Now(),
	}
	require.NoError(t, db.Create(&enrollment).Error)
	return enrollment
}

// CompleteLessons writes completed progress rows directly, bypassing point awards.
func CompleteLessons(t testing.TB, db *gorm.DB, userID uint, lessons ...courseModels.Lesson) {
	t.Helper()
	now := time.Now()
	for _, l := range lessons {
		rec := courseModels.ProgressRecord{
			UserID:      userID,
			LessonID:    l.ID,
			CourseID:    l.CourseID,
			IsCompleted: true,
			CompletedAt: &now,
		}
		require.NoError(t, db.Create(&rec).Error)
	}
}
