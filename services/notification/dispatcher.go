// Package notification persists in-app notifications and mirrors them by email.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"learnhub/logger"
	"learnhub/models"
	nm "learnhub/models/notification"
	"learnhub/services/apperr"
	"learnhub/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	emailTimeout    = 30 * time.Second
	emailParallel   = 8
	bulkInsertBatch = 500
)

// Types lists every notification type users can receive.
var Types = []nm.Type{
	nm.TypeEnrollment,
	nm.TypeCourseCompleted,
	nm.TypeCertificateIssued,
	nm.TypeNewCourse,
	nm.TypeBadgeEarned,
	nm.TypeStreakReminder,
	nm.TypeAnnouncement,
}

func ValidType(t nm.Type) bool {
	for _, known := range Types {
		if known == t {
			return true
		}
	}
	return false
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	mailer utils.Mailer
	appURL string
	wg     sync.WaitGroup
}

func New(db *gorm.DB, log *logger.Logger, mailer utils.Mailer, appURL string) *Service {
	return &Service{db: db, log: log.Service("NotificationService"), mailer: mailer, appURL: appURL}
}

type CreateRequest struct {
	UserID    uint
	Type      nm.Type
	Title     string
	Message   string
	Metadata  map[string]any
	SendEmail bool
}

type BulkRequest struct {
	// UserIDs nil means every non-admin user.
	UserIDs   []uint
	Type      nm.Type
	Title     string
	Message   string
	Metadata  map[string]any
	SendEmail bool
}

func encodeMetadata(meta map[string]any) (datatypes.JSON, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

type recipient struct {
	ID    uint
	Name  string
	Email string
}

// Create stores one notification. Email delivery happens in the background
// and never affects the stored row or the returned error.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*nm.Notification, error) {
	db := s.db.WithContext(ctx)

	var user recipient
	if err := db.Model(&models.User{}).Select("id, name, email").
		Where("id = ? AND is_deleted = ?", req.UserID, false).Take(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewNotFound("User not found!")
		}
		return nil, apperr.Wrap(err, "failed to load user")
	}

	meta, err := encodeMetadata(req.Metadata)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to encode notification metadata")
	}
	n := nm.Notification{
		UserID:   req.UserID,
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Metadata: meta,
		SentAt:   time.Now(),
	}
	if err := db.Create(&n).Error; err != nil {
		return nil, apperr.Wrap(fmt.Errorf("insert notification: %w", err), "failed to create notification")
	}

	if req.SendEmail {
		allowed, err := s.emailEnabled(db, req.UserID, req.Type)
		if err != nil {
			s.log.Warn("email preference lookup failed", "userId", req.UserID, "error", err)
		} else if allowed {
			s.deliver([]recipient{user}, req.Title, req.Message)
		}
	}
	return &n, nil
}

// SendBulk inserts one row per target user, in chunks of bulkInsertBatch inside
// one transaction, and returns how many rows were written.
func (s *Service) SendBulk(ctx context.Context, req BulkRequest) (int, error) {
	db := s.db.WithContext(ctx)

	q := db.Model(&models.User{}).Select("id, name, email").Where("is_deleted = ?", false)
	if req.UserIDs == nil {
		q = q.Where("role <> ?", models.RoleAdmin)
	} else {
		if len(req.UserIDs) == 0 {
			return 0, nil
		}
		q = q.Where("id IN ?", req.UserIDs)
	}
	var targets []recipient
	if err := q.Order("id asc").Find(&targets).Error; err != nil {
		return 0, apperr.Wrap(err, "failed to load recipients")
	}
	if len(targets) == 0 {
		return 0, nil
	}

	meta, err := encodeMetadata(req.Metadata)
	if err != nil {
		return 0, apperr.Wrap(err, "failed to encode notification metadata")
	}
	now := time.Now()
	rows := make([]nm.Notification, len(targets))
	for i, t := range targets {
		rows[i] = nm.Notification{
			UserID:   t.ID,
			Type:     req.Type,
			Title:    req.Title,
			Message:  req.Message,
			Metadata: meta,
			SentAt:   now,
		}
	}
	// The chunks commit together so a failed chunk leaves no partial fan-out.
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, bulkInsertBatch).Error
	})
	if err != nil {
		return 0, apperr.Wrap(fmt.Errorf("bulk insert notifications: %w", err), "failed to send notifications")
	}

	if req.SendEmail {
		optedOut, err := s.optedOut(db, targets, req.Type)
		if err != nil {
			s.log.Warn("bulk preference lookup failed", "type", req.Type, "error", err)
		} else {
			mailable := make([]recipient, 0, len(targets))
			for _, t := range targets {
				if !optedOut[t.ID] {
					mailable = append(mailable, t)
				}
			}
			s.deliver(mailable, req.Title, req.Message)
		}
	}

	s.log.Info("bulk notification sent", "type", req.Type, "recipients", len(rows))
	return len(rows), nil
}

func (s *Service) emailEnabled(db *gorm.DB, userID uint, t nm.Type) (bool, error) {
	var pref nm.Preference
	if err := db.Where("user_id = ? AND type = ?", userID, t).Limit(1).Find(&pref).Error; err != nil {
		return false, err
	}
	if pref.ID == 0 {
		return true, nil
	}
	return pref.EmailEnabled, nil
}

func (s *Service) optedOut(db *gorm.DB, targets []recipient, t nm.Type) (map[uint]bool, error) {
	ids := make([]uint, len(targets))
	for i, r := range targets {
		ids[i] = r.ID
	}
	var out []uint
	err := db.Model(&nm.Preference{}).
		Where("type = ? AND email_enabled = ? AND user_id IN ?", t, false, ids).
		Pluck("user_id", &out).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(out))
	for _, id := range out {
		set[id] = true
	}
	return set, nil
}

// deliver sends emails on a detached goroutine. Failures are logged only.
func (s *Service) deliver(to []recipient, title, message string) {
	if s.mailer == nil || len(to) == 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(emailParallel)
		for _, r := range to {
			r := r
			if r.Email == "" {
				continue
			}
			g.Go(func() error {
				content := utils.NotificationEmail(r.Name, title, message, s.appURL)
				if err := s.mailer.Send(gctx, r.Email, content.Subject, content.HTML); err != nil {
					s.log.Warn("notification email failed", "userId", r.ID, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until background email sends finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) List(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]nm.Notification, int64, error) {
	_, limit, offset := utils.Paginate(page, limit, 100)
	q := s.db.WithContext(ctx).Model(&nm.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, "failed to count notifications")
	}
	var rows []nm.Notification
	if err := q.Order("sent_at desc, id desc").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, apperr.Wrap(err, "failed to load notifications")
	}
	return rows, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&nm.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error; err != nil {
		return 0, apperr.Wrap(err, "failed to count notifications")
	}
	return n, nil
}

// MarkRead is idempotent for the owner. Someone else's id is NotFound.
func (s *Service) MarkRead(ctx context.Context, userID, id uint) (*nm.Notification, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()
	if err := db.Model(&nm.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to update notification")
	}

	var n nm.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewNotFound("Notification not found!")
		}
		return nil, apperr.Wrap(err, "failed to load notification")
	}
	return &n, nil
}

// MarkAllRead touches unread rows only and reports how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&nm.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return 0, apperr.Wrap(res.Error, "failed to update notifications")
	}
	return res.RowsAffected, nil
}

type PreferenceView struct {
	Type         nm.Type `json:"type"`
	EmailEnabled bool    `json:"emailEnabled"`
}

// Preferences returns the effective email setting for every type.
func (s *Service) Preferences(ctx context.Context, userID uint) ([]PreferenceView, error) {
	var prefs []nm.Preference
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&prefs).Error; err != nil {
		return nil, apperr.Wrap(err, "failed to load preferences")
	}
	stored := make(map[nm.Type]bool, len(prefs))
	for _, p := range prefs {
		stored[p.Type] = p.EmailEnabled
	}
	out := make([]PreferenceView, len(Types))
	for i, t := range Types {
		enabled, ok := stored[t]
		out[i] = PreferenceView{Type: t, EmailEnabled: !ok || enabled}
	}
	return out, nil
}

func (s *Service) SetPreference(ctx context.Context, userID uint, t nm.Type, emailEnabled bool) error {
	if !ValidType(t) {
		return apperr.NewNotFound("Unknown notification type!")
	}
	pref := nm.Preference{UserID: userID, Type: t, EmailEnabled: emailEnabled}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"email_enabled": emailEnabled, "updated_at": time.Now()}),
	}).Create(&pref).Error
	if err != nil {
		return apperr.Wrap(err, "failed to save preference")
	}
	return nil
}

// DeleteReadBefore removes read notifications sent before cutoff.
func (s *Service) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("is_read = ? AND sent_at < ?", true, cutoff).Delete(&nm.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}
