package progress

import (
	"context"
	"testing"

	"learnhub/logger"
	courseModels "learnhub/models/course"
	gm "learnhub/models/gamification"
	"learnhub/services/apperr"
	"learnhub/services/events"
	"learnhub/services/gamification"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gamification.Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	game := gamification.New(db, logger.Nop(), events.NewHub(logger.Nop()), nil, nil)
	return New(db, logger.Nop(), game), game, db
}

func TestCompletionWithNoPublishedLessonsIsZero(t *testing.T) {
	svc, _, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 0, 0)
	draft := testutil.CreateLesson(t, db, fx.Course.ID, fx.Module.ID, false)
	testutil.CompleteLessons(t, db, user.ID, draft)

	c, err := svc.CourseCompletion(context.Background(), user.ID, fx.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.TotalLessons)
	assert.Equal(t, 0, c.Percentage)
	assert.False(t, c.Reached(CertificateThreshold))
}

func TestCompletionIgnoresUnpublishedContent(t *testing.T) {
	svc, _, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 4, 0)

	hidden := courseModels.Module{CourseID: fx.Course.ID, Title: "Draft"}
	require.NoError(t, db.Create(&hidden).Error)
	inHidden := testutil.CreateLesson(t, db, fx.Course.ID, hidden.ID, true)
	draft := testutil.CreateLesson(t, db, fx.Course.ID, fx.Module.ID, false)

	testutil.CompleteLessons(t, db, user.ID, fx.Lessons[0], fx.Lessons[1], inHidden, draft)

	c, err := svc.CourseCompletion(context.Background(), user.ID, fx.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, c.TotalLessons)
	assert.Equal(t, 2, c.CompletedLessons)
	assert.Equal(t, 50, c.Percentage)
}

func TestCompletionEightOfTenReachesThreshold(t *testing.T) {
	svc, _, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 10, 0)
	testutil.CompleteLessons(t, db, user.ID, fx.Lessons[:8]...)

	c, err := svc.CourseCompletion(context.Background(), user.ID, fx.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, c.Percentage)
	assert.True(t, c.Reached(CertificateThreshold))
}

func TestCompletionUnknownCourse(t *testing.T) {
	svc, _, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")

	_, err := svc.CourseCompletion(context.Background(), user.ID, 4242)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestReachedUsesExactRatio(t *testing.T) {
	// 79.5% rounds to 80 for display but does not unlock the threshold
	c := newCompletion(1, 159, 200)
	assert.Equal(t, 80, c.Percentage)
	assert.False(t, c.Reached(CertificateThreshold))
}

func TestMarkLessonCompleteRequiresEnrollment(t *testing.T) {
	svc, _, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 2, 0)

	_, err := svc.MarkLessonComplete(context.Background(), user.ID, fx.Lessons[0].ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMarkLessonCompleteAwardsOnce(t *testing.T) {
	svc, game, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 2, 0)
	testutil.Enroll(t, db, user.ID, fx.Course.ID)

	first, err := svc.MarkLessonComplete(ctx, user.ID, fx.Lessons[0].ID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCompleted)
	assert.Equal(t, 10, first.PointsAwarded)
	assert.Equal(t, 50, first.Completion.Percentage)

	second, err := svc.MarkLessonComplete(ctx, user.ID, fx.Lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCompleted)
	assert.Zero(t, second.PointsAwarded)
	assert.Equal(t, 50, second.Completion.Percentage)

	up, err := game.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, up.LessonPoints)

	var records int64
	db.Model(&courseModels.ProgressRecord{}).Where("user_id = ?", user.ID).Count(&records)
	assert.Equal(t, int64(1), records)
}

func TestMarkLessonCompleteFinishesCourse(t *testing.T) {
	svc, game, db := newTestService(t)
	ctx := context.Background()
	require.NoError(t, game.SeedDefaultBadges(ctx))
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 2, 0)
	enrollment := testutil.Enroll(t, db, user.ID, fx.Course.ID)

	first, err := svc.MarkLessonComplete(ctx, user.ID, fx.Lessons[0].ID)
	require.NoError(t, err)
	require.Len(t, first.NewBadges, 1)
	assert.Equal(t, "First Steps", first.NewBadges[0].Name)

	res, err := svc.MarkLessonComplete(ctx, user.ID, fx.Lessons[1].ID)
	require.NoError(t, err)
	assert.True(t, res.CourseCompleted)
	assert.Equal(t, 100, res.Completion.Percentage)
	assert.Equal(t, 110, res.PointsAwarded)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, "Course Finisher", res.NewBadges[0].Name)

	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.NotNil(t, reloaded.CompletedAt)
	assert.Equal(t, float64(100), reloaded.Progress)

	var courseTxns int64
	db.Model(&gm.PointTransaction{}).Where("user_id = ? AND type = ?", user.ID, gm.TransactionCourseCompleted).Count(&courseTxns)
	assert.Equal(t, int64(1), courseTxns)
}

func TestMarkLessonCompleteHiddenLesson(t *testing.T) {
	svc, _, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 1, 0)
	testutil.Enroll(t, db, user.ID, fx.Course.ID)
	draft := testutil.CreateLesson(t, db, fx.Course.ID, fx.Module.ID, false)

	_, err := svc.MarkLessonComplete(context.Background(), user.ID, draft.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestRecordWatchTimeKeepsMaximum(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 1, 0)
	testutil.Enroll(t, db, user.ID, fx.Course.ID)
	lessonID := fx.Lessons[0].ID

	rec, err := svc.RecordWatchTime(ctx, user.ID, lessonID, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, rec.SecondsWatched)

	rec, err = svc.RecordWatchTime(ctx, user.ID, lessonID, 30)
	require.NoError(t, err)
	assert.Equal(t, 120, rec.SecondsWatched)
	assert.False(t, rec.IsCompleted)

	var n int64
	db.Model(&courseModels.ProgressRecord{}).Where("user_id = ? AND lesson_id = ?", user.ID, lessonID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestCourseProgressListsRecords(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	fx := testutil.CreateCourse(t, db, 3, 0)
	testutil.Enroll(t, db, user.ID, fx.Course.ID)
	_, err := svc.MarkLessonComplete(ctx, user.ID, fx.Lessons[2].ID)
	require.NoError(t, err)

	p, err := svc.CourseProgress(ctx, user.ID, fx.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Completion.CompletedLessons)
	require.Len(t, p.Lessons, 1)
	assert.Equal(t, fx.Lessons[2].ID, p.Lessons[0].LessonID)
}
