// Package certificate issues course completion certificates and renders them.
package certificate

import (
	"context"
	"fmt"
	"time"

	"learnhub/logger"
	"learnhub/models"
	courseModels "learnhub/models/course"
	gm "learnhub/models/gamification"
	"learnhub/services/apperr"
	"learnhub/services/events"
	"learnhub/services/progress"

	"gorm.io/gorm"
)

// Completer computes course completion for a user.
type Completer interface {
	CourseCompletion(ctx context.Context, userID, courseID uint) (progress.Completion, error)
}

// BadgeChecker grants badges whose conditions now hold.
type BadgeChecker interface {
	CheckAndAwardBadges(ctx context.Context, userID uint) ([]gm.Badge, error)
}

type Service struct {
	db        *gorm.DB
	log       *logger.Logger
	completer Completer
	badges    BadgeChecker
	pub       events.Publisher
	appURL    string
	render    func(Document) ([]byte, error)
}

func New(db *gorm.DB, log *logger.Logger, completer Completer, badges BadgeChecker, pub events.Publisher, appURL string) *Service {
	if pub == nil {
		pub = events.Discard
	}
	return &Service{
		db:        db,
		log:       log.Service("CertificateService"),
		completer: completer,
		badges:    badges,
		pub:       pub,
		appURL:    appURL,
		render:    RenderPDF,
	}
}

type Issued struct {
	Certificate courseModels.Certificate `json:"certificate"`
	PDF         []byte                   `json:"-"`
	Created     bool                     `json:"created"`
	NewBadges   []gm.Badge               `json:"newBadges,omitempty"`
}

// completionDetails describes how far the user is from the threshold.
// Below the threshold the percentage is floored so remaining is never 0.
func completionDetails(c progress.Completion) map[string]any {
	pct := c.Percentage
	if !c.Reached(progress.CertificateThreshold) && c.TotalLessons > 0 {
		pct = c.CompletedLessons * 100 / c.TotalLessons
	}
	remaining := progress.CertificateThreshold - pct
	if remaining < 0 {
		remaining = 0
	}
	return map[string]any{
		"percentage":       pct,
		"threshold":        progress.CertificateThreshold,
		"remaining":        remaining,
		"remainingLessons": c.LessonsToReach(progress.CertificateThreshold),
	}
}

// Issue returns the user's certificate for a course, creating it the first
// time completion reaches the threshold. Every successful call counts as a
// download. An issued certificate is never re-checked against current progress.
func (s *Service) Issue(ctx context.Context, userID, courseID uint) (*Issued, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewUnauthorized("User not found!")
		}
		return nil, apperr.Wrap(err, "failed to load user")
	}

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewNotFound("Course not found!")
		}
		return nil, apperr.Wrap(err, "failed to load course")
	}

	var enrolled int64
	if err := db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, courseModels.EnrollmentActive).
		Count(&enrolled).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load enrollment")
	}
	if enrolled == 0 {
		details := map[string]any{"percentage": 0, "threshold": progress.CertificateThreshold}
		if c, err := s.completer.CourseCompletion(ctx, userID, courseID); err == nil {
			details = completionDetails(c)
		}
		return nil, apperr.NewNotFound("You are not enrolled in this course!").WithDetails(details)
	}

	cert, err := s.existing(db, userID, courseID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		completion, err := s.completer.CourseCompletion(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if !completion.Reached(progress.CertificateThreshold) {
			return nil, apperr.NewIneligible(
				fmt.Sprintf("Complete at least %d%% of the course to get a certificate!", progress.CertificateThreshold),
			).WithDetails(completionDetails(completion))
		}
		return s.issueNew(ctx, db, &user, &course)
	}
	return s.download(db, cert, &user, &course)
}

// download renders an existing certificate, then counts the download.
func (s *Service) download(db *gorm.DB, cert *courseModels.Certificate, user *models.User, course *courseModels.Course) (*Issued, error) {
	pdf, err := s.renderFor(db, cert, user, course)
	if err != nil {
		return nil, err
	}
	counted, err := s.countDownload(db, cert.ID)
	if err != nil {
		return nil, err
	}
	return &Issued{Certificate: *counted, PDF: pdf}, nil
}

// issueNew renders and inserts a fresh certificate. A concurrent request
// that inserted first wins; this call then serves its row as a download.
func (s *Service) issueNew(ctx context.Context, db *gorm.DB, user *models.User, course *courseModels.Course) (*Issued, error) {
	now := time.Now()
	number := NewNumber(now)
	cert := courseModels.Certificate{
		UserID:            user.ID,
		CourseID:          course.ID,
		CertificateNumber: number,
		ValidationHash:    ValidationHash(user.ID, course.ID, number),
		IssuedAt:          now,
		DownloadCount:     1,
	}
	pdf, err := s.renderFor(db, &cert, user, course)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var held int64
		if err := tx.Model(&courseModels.Certificate{}).Where("user_id = ? AND course_id = ?", user.ID, course.ID).Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(&cert).Error
	})
	if err != nil {
		winner, lookupErr := s.existing(db, user.ID, course.ID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if winner == nil {
			return nil, apperr.Wrap(fmt.Errorf("insert certificate: %w", err), "failed to issue certificate")
		}
		s.log.Debug("certificate insert lost race", "userId", user.ID, "courseId", course.ID)
		return s.download(db, winner, user, course)
	}

	s.log.Info("certificate issued", "userId", user.ID, "courseId", course.ID, "number", cert.CertificateNumber)
	s.pub.Publish(events.Event{
		Type:     events.CertificateIssued,
		UserID:   user.ID,
		CourseID: course.ID,
		Data: map[string]any{
			"certificateId":     cert.ID,
			"certificateNumber": cert.CertificateNumber,
			"courseTitle":       course.Title,
		},
	})

	issued := &Issued{Certificate: cert, PDF: pdf, Created: true}
	if s.badges != nil {
		badges, err := s.badges.CheckAndAwardBadges(ctx, user.ID)
		if err != nil {
			s.log.Warn("badge check after certificate failed", "userId", user.ID, "error", err)
		}
		issued.NewBadges = badges
	}
	return issued, nil
}

func (s *Service) existing(db *gorm.DB, userID, courseID uint) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).Limit(1).Find(&cert).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("load certificate: %w", err), "failed to load certificate")
	}
	if cert.ID == 0 {
		return nil, nil
	}
	return &cert, nil
}

// countDownload increments downloadCount and returns the updated row.
func (s *Service) countDownload(db *gorm.DB, certID uint) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&courseModels.Certificate{}).Where("id = ?", certID).
			Update("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
			return err
		}
		return tx.First(&cert, certID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("count certificate download: %w", err), "failed to load certificate")
	}
	return &cert, nil
}

func (s *Service) renderFor(db *gorm.DB, cert *courseModels.Certificate, user *models.User, course *courseModels.Course) ([]byte, error) {
	doc, err := s.document(db, cert, user, course)
	if err != nil {
		return nil, err
	}
	pdf, err := s.render(doc)
	if err != nil {
		s.log.Error("certificate render failed", "certificate", cert.CertificateNumber, "error", err)
		return nil, apperr.Wrap(err, "failed to render certificate")
	}
	return pdf, nil
}

func (s *Service) verifyURL(number string) string {
	return fmt.Sprintf("%s/certificate/verify/%s", s.appURL, number)
}

func (s *Service) document(db *gorm.DB, cert *courseModels.Certificate, user *models.User, course *courseModels.Course) (Document, error) {
	var instructor models.User
	if err := db.Where("id = ?", course.InstructorID).Limit(1).Find(&instructor).Error; err != nil {
		return Document{}, apperr.Wrap(err, "failed to load instructor")
	}
	instructorName := instructor.Name
	if instructorName == "" {
		instructorName = "Course Instructor"
	}
	return Document{
		StudentName:       user.Name,
		CourseTitle:       course.Title,
		InstructorName:    instructorName,
		CertificateNumber: cert.CertificateNumber,
		ValidationHash:    cert.ValidationHash,
		IssuedAt:          cert.IssuedAt,
		VerifyURL:         s.verifyURL(cert.CertificateNumber),
	}, nil
}

type Summary struct {
	courseModels.Certificate
	CourseTitle string `json:"course_title"`
	VerifyURL   string `json:"verify_url"`
}

func (s *Service) ListForUser(ctx context.Context, userID uint) ([]Summary, error) {
	var rows []Summary
	err := s.db.WithContext(ctx).
		Model(&courseModels.Certificate{}).
		Select("certificates.*, courses.title AS course_title").
		Joins("JOIN courses ON courses.id = certificates.course_id").
		Where("certificates.user_id = ?", userID).
		Order("certificates.issued_at desc").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load certificates")
	}
	for i := range rows {
		rows[i].VerifyURL = s.verifyURL(rows[i].CertificateNumber)
	}
	return rows, nil
}

type Verification struct {
	CertificateNumber string    `json:"certificate_number"`
	HolderName        string    `json:"holder_name"`
	CourseTitle       string    `json:"course_title"`
	IssuedAt          time.Time `json:"issued_at"`
}

// Verify looks a certificate up by its public number.
func (s *Service) Verify(ctx context.Context, number string) (*Verification, error) {
	doc, err := s.lookup(ctx, number)
	if err != nil {
		return nil, err
	}
	return &Verification{
		CertificateNumber: doc.CertificateNumber,
		HolderName:        doc.StudentName,
		CourseTitle:       doc.CourseTitle,
		IssuedAt:          doc.IssuedAt,
	}, nil
}

// Preview renders the PNG share card for a certificate number.
func (s *Service) Preview(ctx context.Context, number string) ([]byte, error) {
	doc, err := s.lookup(ctx, number)
	if err != nil {
		return nil, err
	}
	png, err := RenderPreview(doc)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to render preview")
	}
	return png, nil
}

func (s *Service) lookup(ctx context.Context, number string) (Document, error) {
	db := s.db.WithContext(ctx)
	var cert courseModels.Certificate
	if err := db.Where("certificate_number = ?", number).First(&cert).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return Document{}, apperr.NewNotFound("Certificate not found!")
		}
		return Document{}, apperr.Wrap(err, "failed to load certificate")
	}
	var user models.User
	if err := db.Where("id = ?", cert.UserID).Limit(1).Find(&user).Error; err != nil {
		return Document{}, apperr.Wrap(err, "failed to load holder")
	}
	var course courseModels.Course
	if err := db.Where("id = ?", cert.CourseID).Limit(1).Find(&course).Error; err != nil {
		return Document{}, apperr.Wrap(err, "failed to load course")
	}
	return s.document(db, &cert, &user, &course)
}
