package enrollment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"learnhub/logger"
	"learnhub/models"
	courseModels "learnhub/models/course"
	"learnhub/services/apperr"
	"learnhub/services/events"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// gateway serves canned payments keyed by id.
func gateway(t *testing.T, payments map[string]ProviderPayment) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/payments/")
		p, found := payments[id]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	svc    *Service
	db     *gorm.DB
	events <-chan events.Event
}

func newFixture(t *testing.T, payments map[string]ProviderPayment) fixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	hub := events.NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := hub.Subscribe(ctx, "test", 16)
	srv := gateway(t, payments)
	return fixture{
		svc:    New(db, logger.Nop(), NewVerifier(srv.URL, "key", "secret"), hub),
		db:     db,
		events: ch,
	}
}

func expectEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
	return events.Event{}
}

func TestEnrollFreeCourse(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 2, 0)

	e, err := f.svc.Enroll(context.Background(), user.ID, course.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentActive, e.Status)

	ev := expectEvent(t, f.events)
	assert.Equal(t, events.Enrolled, ev.Type)
	assert.Equal(t, course.Course.Title, ev.String("courseTitle"))

	_, err = f.svc.Enroll(context.Background(), user.ID, course.Course.ID)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestEnrollPaidCourseRequiresPayment(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 1, 49900)

	_, err := f.svc.Enroll(context.Background(), user.ID, course.Course.ID)
	assert.True(t, apperr.Is(err, apperr.Ineligible))
}

func TestEnrollUnpublishedCourse(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 1, 0)
	require.NoError(t, f.db.Model(&course.Course).Update("is_published", false).Error)

	_, err := f.svc.Enroll(context.Background(), user.ID, course.Course.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestEnrollReactivatesCancelled(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 1, 0)
	prior := testutil.Enroll(t, f.db, user.ID, course.Course.ID)
	require.NoError(t, f.db.Model(&prior).Update("status", courseModels.EnrollmentCancelled).Error)

	e, err := f.svc.Enroll(context.Background(), user.ID, course.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, prior.ID, e.ID)
	assert.Equal(t, courseModels.EnrollmentActive, e.Status)
}

func TestConfirmPurchase(t *testing.T) {
	f := newFixture(t, map[string]ProviderPayment{
		"pay_ok": {ID: "pay_ok", Amount: 49900, Currency: "INR", Status: "captured", OrderID: "order_1", Method: "upi"},
	})
	user := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 1, 49900)

	e, err := f.svc.ConfirmPurchase(context.Background(), user.ID, course.Course.ID, "pay_ok")
	require.NoError(t, err)
	assert.Equal(t, "pay_ok", e.PaymentID)
	assert.Equal(t, events.Enrolled, expectEvent(t, f.events).Type)

	var payment models.Payment
	require.NoError(t, f.db.Where("payment_id = ?", "pay_ok").First(&payment).Error)
	assert.Equal(t, int64(49900), payment.Amount)
	assert.Equal(t, models.PaymentStatusCaptured, payment.Status)
	assert.Equal(t, course.Course.ID, payment.ReferenceID)
	assert.Contains(t, payment.PaymentResponseRaw, "order_1")

	_, err = f.svc.ConfirmPurchase(context.Background(), user.ID, course.Course.ID, "pay_ok")
	assert.True(t, apperr.Is(err, apperr.Ineligible), "second purchase of an owned course")
}

func TestConfirmPurchaseRejectsReusedPayment(t *testing.T) {
	f := newFixture(t, map[string]ProviderPayment{
		"pay_ok": {ID: "pay_ok", Amount: 49900, Currency: "INR", Status: "captured"},
	})
	first := testutil.CreateUser(t, f.db, "")
	second := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 1, 49900)

	_, err := f.svc.ConfirmPurchase(context.Background(), first.ID, course.Course.ID, "pay_ok")
	require.NoError(t, err)
	_, err = f.svc.ConfirmPurchase(context.Background(), second.ID, course.Course.ID, "pay_ok")
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestConfirmPurchaseVerification(t *testing.T) {
	f := newFixture(t, map[string]ProviderPayment{
		"pay_auth":  {ID: "pay_auth", Amount: 49900, Currency: "INR", Status: "authorized"},
		"pay_short": {ID: "pay_short", Amount: 100, Currency: "INR", Status: "captured"},
		"pay_usd":   {ID: "pay_usd", Amount: 49900, Currency: "USD", Status: "captured"},
	})
	user := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 1, 49900)

	cases := map[string]apperr.Kind{
		"pay_missing": apperr.NotFound,
		"pay_auth":    apperr.Ineligible,
		"pay_short":   apperr.Ineligible,
		"pay_usd":     apperr.Ineligible,
	}
	for id, kind := range cases {
		_, err := f.svc.ConfirmPurchase(context.Background(), user.ID, course.Course.ID, id)
		assert.Truef(t, apperr.Is(err, kind), "%s: got %v", id, err)
	}

	var count int64
	f.db.Model(&courseModels.Enrollment{}).Count(&count)
	assert.Zero(t, count)
}

func TestConfirmPurchaseFreeCourse(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "")
	course := testutil.CreateCourse(t, f.db, 1, 0)

	_, err := f.svc.ConfirmPurchase(context.Background(), user.ID, course.Course.ID, "pay_x")
	assert.True(t, apperr.Is(err, apperr.Ineligible))
}

func TestConfirmPurchaseUnconfiguredProvider(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := New(db, logger.Nop(), NewVerifier("http://127.0.0.1:1", "", ""), nil)
	user := testutil.CreateUser(t, db, "")
	course := testutil.CreateCourse(t, db, 1, 100)

	_, err := svc.ConfirmPurchase(context.Background(), user.ID, course.Course.ID, "pay_x")
	assert.True(t, apperr.Is(err, apperr.Internal))
}

func TestListForUser(t *testing.T) {
	f := newFixture(t, nil)
	user := testutil.CreateUser(t, f.db, "")
	a := testutil.CreateCourse(t, f.db, 1, 0)
	b := testutil.CreateCourse(t, f.db, 1, 0)
	testutil.Enroll(t, f.db, user.ID, a.Course.ID)
	testutil.Enroll(t, f.db, user.ID, b.Course.ID)

	rows, err := f.svc.ListForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	titles := []string{rows[0].CourseTitle, rows[1].CourseTitle}
	assert.ElementsMatch(t, []string{a.Course.Title, b.Course.Title}, titles)
}
