// Package enrollment grants course access, either free or against a verified
// gateway payment.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"learnhub/logger"
	"learnhub/models"
	courseModels "learnhub/models/course"
	"learnhub/services/apperr"
	"learnhub/services/events"

	"gorm.io/gorm"
)

const gatewayName = "razorpay"

type Service struct {
	db       *gorm.DB
	log      *logger.Logger
	verifier *Verifier
	pub      events.Publisher
}

func New(db *gorm.DB, log *logger.Logger, verifier *Verifier, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{db: db, log: log.Service("EnrollmentService"), verifier: verifier, pub: pub}
}

func (s *Service) publishedCourse(db *gorm.DB, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("Course not found!")
		}
		return nil, apperr.Wrap(err, "failed to load course")
	}
	return &course, nil
}

func (s *Service) existing(db *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	var e courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).Limit(1).Find(&e).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load enrollment")
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

// activate creates the enrollment or reactivates a cancelled/refunded one.
func activate(tx *gorm.DB, prior *courseModels.Enrollment, userID, courseID uint, paymentID string) (*courseModels.Enrollment, error) {
	now := time.Now()
	if prior != nil {
		prior.Status = courseModels.EnrollmentActive
		prior.EnrolledAt = now
		prior.PaymentID = paymentID
		if err := tx.Save(prior).Error; err != nil {
			return nil, err
		}
		return prior, nil
	}
	e := courseModels.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     courseModels.EnrollmentActive,
		EnrolledAt: now,
		PaymentID:  paymentID,
	}
	if err := tx.Create(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) announce(e *courseModels.Enrollment, course *courseModels.Course) {
	s.pub.Publish(events.Event{
		Type:     events.Enrolled,
		UserID:   e.UserID,
		CourseID: course.ID,
		Data:     map[string]any{"courseTitle": course.Title, "paymentId": e.PaymentID},
	})
}

// Enroll grants free access to a published, free course.
func (s *Service) Enroll(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error) {
	db := s.db.WithContext(ctx)
	course, err := s.publishedCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsFree() {
		return nil, apperr.NewIneligible("Payment required to enroll in this course!").
			WithDetails(map[string]any{"price": course.Price, "currency": course.Currency})
	}

	prior, err := s.existing(db, userID, courseID)
	if err != nil {
		return nil, err
	}
	if prior != nil && prior.Status == courseModels.EnrollmentActive {
		return nil, apperr.NewConflict("Already enrolled in this course!")
	}

	e, err := activate(db, prior, userID, courseID, "")
	if err != nil {
		if again, _ := s.existing(db, userID, courseID); again != nil && again.Status == courseModels.EnrollmentActive {
			return nil, apperr.NewConflict("Already enrolled in this course!")
		}
		return nil, apperr.Wrap(err, "failed to enroll")
	}

	s.log.Info("user enrolled", "userId", userID, "courseId", courseID)
	s.announce(e, course)
	return e, nil
}

// ConfirmPurchase verifies paymentID with the gateway and enrolls the user.
// The payment row and the enrollment are written together.
func (s *Service) ConfirmPurchase(ctx context.Context, userID, courseID uint, paymentID string) (*courseModels.Enrollment, error) {
	db := s.db.WithContext(ctx)
	paymentID = strings.TrimSpace(paymentID)

	course, err := s.publishedCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if course.IsFree() {
		return nil, apperr.NewIneligible("This course is free, enroll directly!")
	}

	prior, err := s.existing(db, userID, courseID)
	if err != nil {
		return nil, err
	}
	if prior != nil && prior.Status == courseModels.EnrollmentActive {
		return nil, apperr.NewIneligible("Course already purchased!")
	}

	var seen int64
	if err := db.Model(&models.Payment{}).Where("payment_id = ?", paymentID).Count(&seen).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to check payment")
	}
	if seen > 0 {
		return nil, apperr.NewConflict("Payment already processed!")
	}

	if s.verifier == nil || !s.verifier.configured {
		return nil, apperr.New(apperr.Internal, "payment provider is not configured")
	}
	remote, err := s.verifier.Fetch(ctx, paymentID)
	if err != nil {
		if errors.Is(err, errPaymentNotFound) {
			return nil, apperr.NewNotFound("Payment not found!")
		}
		s.log.Error("payment verification failed", "paymentId", paymentID, "error", err)
		return nil, apperr.Wrap(err, "failed to verify payment")
	}
	if remote.Status != "captured" {
		return nil, apperr.NewIneligible("Payment has not been captured!").
			WithDetails(map[string]any{"status": remote.Status})
	}
	if remote.Amount < course.Price {
		return nil, apperr.NewIneligible("Payment amount is less than the course price!").
			WithDetails(map[string]any{"paid": remote.Amount, "price": course.Price})
	}
	if remote.Currency != "" && course.Currency != "" && !strings.EqualFold(remote.Currency, course.Currency) {
		return nil, apperr.NewIneligible("Payment currency does not match the course!")
	}

	payment := models.Payment{
		UserID:             userID,
		Amount:             remote.Amount,
		Currency:           strings.ToUpper(remote.Currency),
		Status:             models.PaymentStatusCaptured,
		PaymentGateway:     gatewayName,
		PaymentOrderID:     remote.OrderID,
		PaymentID:          paymentID,
		PaymentMethod:      remote.Method,
		PaymentResponseRaw: remote.raw,
		ReferenceType:      "course",
		ReferenceID:        course.ID,
		ReferenceName:      course.Title,
		PaidAt:             time.Now(),
	}

	// Start transaction
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperr.Wrap(tx.Error, "failed to start transaction")
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		var dup int64
		if s.db.WithContext(ctx).Model(&models.Payment{}).Where("payment_id = ?", paymentID).Count(&dup); dup > 0 {
			return nil, apperr.NewConflict("Payment already processed!")
		}
		return nil, apperr.Wrap(fmt.Errorf("insert payment: %w", err), "failed to record payment")
	}
	e, err := activate(tx, prior, userID, courseID, paymentID)
	if err != nil {
		tx.Rollback()
		return nil, apperr.Wrap(fmt.Errorf("activate enrollment: %w", err), "failed to enroll")
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Wrap(err, "failed to enroll")
	}

	s.log.Info("paid enrollment confirmed", "userId", userID, "courseId", courseID, "paymentId", paymentID, "amount", remote.Amount)
	s.announce(e, course)
	return e, nil
}

type Summary struct {
	courseModels.Enrollment
	CourseTitle string `json:"course_title"`
}

func (s *Service) ListForUser(ctx context.Context, userID uint) ([]Summary, error) {
	var rows []Summary
	err := s.db.WithContext(ctx).
		Model(&courseModels.Enrollment{}).
		Select("enrollments.*, courses.title AS course_title").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.enrolled_at desc").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load enrollments")
	}
	return rows, nil
}
