package gamification

import (
	"context"
	"testing"

	"learnhub/logger"
	gm "learnhub/models/gamification"
	"learnhub/services/apperr"
	"learnhub/services/events"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return New(db, logger.Nop(), events.NewHub(logger.Nop()), nil, nil), db
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		total int
		level int
	}{
		{-50, 1}, {0, 1}, {99, 1}, {100, 2}, {399, 2}, {400, 3}, {899, 3}, {900, 4}, {10000, 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelFor(tc.total), "total=%d", tc.total)
	}
}

func TestLevelCurveIsMonotonicAndInverse(t *testing.T) {
	prev := LevelFor(0)
	for total := 0; total <= 50000; total += 7 {
		lvl := LevelFor(total)
		require.GreaterOrEqual(t, lvl, prev)
		require.LessOrEqual(t, PointsForLevel(lvl), total)
		require.Greater(t, PointsForLevel(lvl+1), total)
		prev = lvl
	}
	for n := 1; n <= 30; n++ {
		assert.Equal(t, (n-1)*(n-1)*100, PointsForLevel(n))
		assert.Equal(t, n, LevelFor(PointsForLevel(n)))
	}
}

func TestAwardLessonCompletedUsesBaseValue(t *testing.T) {
	svc, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")

	res, err := svc.Award(context.Background(), AwardRequest{UserID: user.ID, Type: gm.TransactionLessonCompleted})
	require.NoError(t, err)

	assert.Equal(t, 10, res.Transaction.Points)
	assert.Equal(t, "Lesson completed", res.Transaction.Description)
	assert.Equal(t, 10, res.Points.TotalPoints)
	assert.Equal(t, 10, res.Points.LessonPoints)
	assert.Equal(t, 0, res.Points.CoursePoints)
	assert.Equal(t, 1, res.Points.Level)
	assert.Equal(t, 10, res.Points.CurrentLevelPoints)
	assert.Equal(t, 90, res.Points.PointsToNextLevel)
}

func TestAwardKeepsAggregateConsistentWithLedger(t *testing.T) {
	svc, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")
	ctx := context.Background()

	override := 37
	negative := -12
	reqs := []AwardRequest{
		{UserID: user.ID, Type: gm.TransactionLessonCompleted},
		{UserID: user.ID, Type: gm.TransactionCourseCompleted},
		{UserID: user.ID, Type: gm.TransactionDailyLogin},
		{UserID: user.ID, Type: gm.TransactionStreakBonus},
		{UserID: user.ID, Type: gm.TransactionFirstTimeBonus},
		{UserID: user.ID, Type: gm.TransactionBadgeEarned, Points: &override},
		{UserID: user.ID, Type: gm.TransactionReviewWritten},
		{UserID: user.ID, Type: gm.TransactionAdminAdjustment, Points: &negative},
	}
	for _, r := range reqs {
		_, err := svc.Award(ctx, r)
		require.NoError(t, err)
	}

	var sum int
	require.NoError(t, db.Model(&gm.PointTransaction{}).Where("user_id = ?", user.ID).
		Select("COALESCE(SUM(points), 0)").Scan(&sum).Error)

	up, err := svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, up.TotalPoints)
	assert.Equal(t, 10+100+5+20+50+37+15-12, up.TotalPoints)
	assert.Equal(t, 10, up.LessonPoints)
	assert.Equal(t, 100, up.CoursePoints)
	assert.Equal(t, 25, up.StreakPoints)
	assert.Equal(t, 37, up.BadgePoints)
	assert.Equal(t, 15, up.ReviewPoints)
	assert.Equal(t, LevelFor(up.TotalPoints), up.Level)
	assert.Equal(t, up.TotalPoints-PointsForLevel(up.Level), up.CurrentLevelPoints)
	assert.Equal(t, PointsForLevel(up.Level+1)-up.TotalPoints, up.PointsToNextLevel)
}

func TestAwardRejectsUnknownType(t *testing.T) {
	svc, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")

	_, err := svc.Award(context.Background(), AwardRequest{UserID: user.ID, Type: "MYSTERY"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Internal))

	var n int64
	db.Model(&gm.PointTransaction{}).Count(&n)
	assert.Zero(t, n)
}

func TestSummaryWithoutPoints(t *testing.T) {
	svc, db := newTestService(t)
	user := testutil.CreateUser(t, db, "")

	up, err := svc.Summary(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, up.Level)
	assert.Equal(t, 100, up.PointsToNextLevel)
}

func TestLeaderboardOrdersByTotal(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "")
	b := testutil.CreateUser(t, db, "")
	admin := testutil.CreateUser(t, db, "ADMIN")

	_, err := svc.Award(ctx, AwardRequest{UserID: a.ID, Type: gm.TransactionLessonCompleted})
	require.NoError(t, err)
	_, err = svc.Award(ctx, AwardRequest{UserID: b.ID, Type: gm.TransactionCourseCompleted})
	require.NoError(t, err)
	_, err = svc.Award(ctx, AwardRequest{UserID: admin.ID, Type: gm.TransactionFirstTimeBonus})
	require.NoError(t, err)

	board, err := svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, b.ID, board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, a.ID, board[1].UserID)
}

func TestHistoryPaginates(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")
	for i := 0; i < 5; i++ {
		_, err := svc.Award(ctx, AwardRequest{UserID: user.ID, Type: gm.TransactionDailyLogin})
		require.NoError(t, err)
	}

	rows, total, err := svc.History(ctx, user.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, rows, 2)
}

func TestAdjustUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Adjust(context.Background(), 9999, 10, "bonus")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestAdjustGrantsPointThresholdBadge(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "")

	threshold := 100
	badge, err := svc.CreateBadge(ctx, CreateBadgeInput{
		Name:           "Century",
		Condition:      gm.ConditionTotalPoints,
		ConditionValue: &threshold,
		Points:         5,
	})
	require.NoError(t, err)

	res, err := svc.Adjust(ctx, user.ID, 150, "bonus")
	require.NoError(t, err)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, badge.ID, res.NewBadges[0].ID)

	var held int64
	require.NoError(t, db.Model(&gm.UserBadge{}).Where("user_id = ? AND badge_id = ?", user.ID, badge.ID).Count(&held).Error)
	assert.Equal(t, int64(1), held)

	again, err := svc.Adjust(ctx, user.ID, 10, "bonus")
	require.NoError(t, err)
	assert.Empty(t, again.NewBadges)
}
