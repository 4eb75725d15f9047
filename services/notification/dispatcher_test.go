package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"learnhub/logger"
	"learnhub/models"
	nm "learnhub/models/notification"
	"learnhub/services/apperr"
	"learnhub/services/events"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	To      string
	Subject string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject})
	return m.err
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.To
	}
	return out
}

func newTestService(t *testing.T) (*Service, *fakeMailer, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	mailer := &fakeMailer{}
	return New(db, logger.Nop(), mailer, "https://learn.example.com"), mailer, db
}

func TestCreateStoresAndEmails(t *testing.T) {
	svc, mailer, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")

	n, err := svc.Create(context.Background(), CreateRequest{
		UserID:    user.ID,
		Type:      nm.TypeAnnouncement,
		Title:     "Hello",
		Message:   "Welcome aboard",
		Metadata:  map[string]any{"source": "test"},
		SendEmail: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.False(t, n.IsRead)
	assert.JSONEq(t, `{"source":"test"}`, string(n.Metadata))

	svc.Wait()
	assert.Equal(t, []string{user.Email}, mailer.recipients())
}

func TestCreateRespectsEmailPreference(t *testing.T) {
	svc, mailer, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	require.NoError(t, svc.SetPreference(ctx, user.ID, nm.TypeBadgeEarned, false))

	_, err := svc.Create(ctx, CreateRequest{UserID: user.ID, Type: nm.TypeBadgeEarned, Title: "Badge", SendEmail: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{UserID: user.ID, Type: nm.TypeEnrollment, Title: "Enrolled", SendEmail: true})
	require.NoError(t, err)

	svc.Wait()
	require.Len(t, mailer.recipients(), 1)
	assert.Equal(t, "Enrolled", mailer.sent[0].Subject)
}

func TestEmailFailureDoesNotFailCreate(t *testing.T) {
	svc, mailer, db := newTestService(t)
	mailer.err = errors.New("smtp down")
	user := testutil.CreateUser(t, db, "")

	n, err := svc.Create(context.Background(), CreateRequest{UserID: user.ID, Type: nm.TypeAnnouncement, Title: "Hi", SendEmail: true})
	require.NoError(t, err)
	svc.Wait()

	var stored nm.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
}

func TestCreateUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateRequest{UserID: 31337, Type: nm.TypeAnnouncement, Title: "x"})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMarkReadIsIdempotentAndScoped(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "")
	other := testutil.CreateUser(t, db, "")

	n, err := svc.Create(ctx, CreateRequest{UserID: owner.ID, Type: nm.TypeAnnouncement, Title: "x"})
	require.NoError(t, err)

	first, err := svc.MarkRead(ctx, owner.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)

	second, err := svc.MarkRead(ctx, owner.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt))

	_, err = svc.MarkRead(ctx, other.ID, n.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMarkAllReadTouchesUnreadOnly(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, CreateRequest{UserID: user.ID, Type: nm.TypeAnnouncement, Title: "x"})
		require.NoError(t, err)
	}
	rows, _, err := svc.List(ctx, user.ID, false, 1, 10)
	require.NoError(t, err)
	_, err = svc.MarkRead(ctx, user.ID, rows[0].ID)
	require.NoError(t, err)

	changed, err := svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	unread, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	changed, err = svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestSendBulkDefaultsToNonAdmins(t *testing.T) {
	svc, mailer, db := newTestService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "")
	b := testutil.CreateUser(t, db, "")
	admin := testutil.CreateUser(t, db, models.RoleAdmin)
	require.NoError(t, svc.SetPreference(ctx, b.ID, nm.TypeAnnouncement, false))

	count, err := svc.SendBulk(ctx, BulkRequest{Type: nm.TypeAnnouncement, Title: "News", Message: "Big news", SendEmail: true})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var adminRows int64
	db.Model(&nm.Notification{}).Where("user_id = ?", admin.ID).Count(&adminRows)
	assert.Zero(t, adminRows)

	svc.Wait()
	assert.Equal(t, []string{a.Email}, mailer.recipients())
}

func TestSendBulkExplicitTargets(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "")
	admin := testutil.CreateUser(t, db, models.RoleAdmin)
	testutil.CreateUser(t, db, "")

	count, err := svc.SendBulk(ctx, BulkRequest{UserIDs: []uint{a.ID, admin.ID, 99999}, Type: nm.TypeAnnouncement, Title: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = svc.SendBulk(ctx, BulkRequest{UserIDs: []uint{}, Type: nm.TypeAnnouncement, Title: "Hi"})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPreferencesDefaultToEnabled(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	require.NoError(t, svc.SetPreference(ctx, user.ID, nm.TypeStreakReminder, false))
	require.NoError(t, svc.SetPreference(ctx, user.ID, nm.TypeStreakReminder, true))
	require.NoError(t, svc.SetPreference(ctx, user.ID, nm.TypeNewCourse, false))

	prefs, err := svc.Preferences(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, prefs, len(Types))
	for _, p := range prefs {
		assert.Equal(t, p.Type != nm.TypeNewCourse, p.EmailEnabled, p.Type)
	}

	var rows int64
	db.Model(&nm.Preference{}).Where("user_id = ?", user.ID).Count(&rows)
	assert.Equal(t, int64(2), rows)

	assert.True(t, apperr.Is(svc.SetPreference(ctx, user.ID, "BOGUS", true), apperr.NotFound))
}

func TestDeleteReadBefore(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	n, err := svc.Create(ctx, CreateRequest{UserID: user.ID, Type: nm.TypeAnnouncement, Title: "old"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{UserID: user.ID, Type: nm.TypeAnnouncement, Title: "unread"})
	require.NoError(t, err)
	_, err = svc.MarkRead(ctx, user.ID, n.ID)
	require.NoError(t, err)

	removed, err := svc.DeleteReadBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestConsumeCertificateIssued(t *testing.T) {
	svc, mailer, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")

	ch := make(chan events.Event, 2)
	ch <- events.Event{
		Type:     events.CertificateIssued,
		UserID:   user.ID,
		CourseID: 5,
		Data:     map[string]any{"courseTitle": "Go Basics", "certificateNumber": "CERT-1-ABCDEFGHI"},
	}
	ch <- events.Event{Type: events.BadgeEarned, UserID: 424242, Data: map[string]any{"badgeName": "Ghost"}}
	close(ch)

	svc.Consume(context.Background(), ch)
	svc.Wait()

	var rows []nm.Notification
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id asc").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, nm.TypeCourseCompleted, rows[0].Type)
	assert.Equal(t, nm.TypeCertificateIssued, rows[1].Type)
	assert.Contains(t, rows[1].Message, "CERT-1-ABCDEFGHI")
	assert.Len(t, mailer.recipients(), 2)
}

func seedLearners(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	users := make([]models.User, n)
	for i := range users {
		users[i] = models.User{
			Name:     fmt.Sprintf("Bulk %d", i),
			Email:    fmt.Sprintf("bulk%d@example.com", i),
			Role:     models.RoleUser,
			Password: "x",
		}
	}
	require.NoError(t, db.CreateInBatches(&users, 200).Error)
}

func TestSendBulkSpansSeveralChunks(t *testing.T) {
	svc, _, db := newTestService(t)
	seedLearners(t, db, bulkInsertBatch+7)

	count, err := svc.SendBulk(context.Background(), BulkRequest{Type: nm.TypeAnnouncement, Title: "Maintenance"})
	require.NoError(t, err)
	assert.Equal(t, bulkInsertBatch+7, count)

	var stored int64
	require.NoError(t, db.Model(&nm.Notification{}).Count(&stored).Error)
	assert.Equal(t, int64(bulkInsertBatch+7), stored)
}

func TestSendBulkRollsBackWhenAChunkFails(t *testing.T) {
	svc, _, db := newTestService(t)
	seedLearners(t, db, bulkInsertBatch+7)

	chunks := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_second_chunk", func(tx *gorm.DB) {
		if tx.Statement.Table != "notifications" {
			return
		}
		chunks++
		if chunks == 2 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := svc.SendBulk(context.Background(), BulkRequest{Type: nm.TypeAnnouncement, Title: "Maintenance"})
	require.Error(t, err)
	assert.Equal(t, 2, chunks)

	var stored int64
	require.NoError(t, db.Model(&nm.Notification{}).Count(&stored).Error)
	assert.Zero(t, stored)
}
