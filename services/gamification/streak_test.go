package gamification

import (
	"context"
	"sync"
	"testing"
	"time"

	gm "learnhub/models/gamification"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func seedStreak(t *testing.T, db *gorm.DB, userID uint, current, longest int, last time.Time) {
	t.Helper()
	day := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&gm.Streak{
		UserID:           userID,
		CurrentStreak:    current,
		LongestStreak:    longest,
		LastActivityDate: &day,
		StreakStartDate:  &day,
	}).Error)
}

func TestUpdateStreakFirstActivity(t *testing.T) {
	svc, db := newTestService(t)
	svc.SetClock(func() time.Time { return fixedNow })
	user := testutil.CreateUser(t, db, "")

	res, err := svc.UpdateStreak(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, StreakStarted, res.Outcome)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 1, res.Streak.LongestStreak)
	assert.Equal(t, 5, res.PointsAwarded)
}

func TestUpdateStreakYesterdayIncrements(t *testing.T) {
	svc, db := newTestService(t)
	svc.SetClock(func() time.Time { return fixedNow })
	user := testutil.CreateUser(t, db, "")
	seedStreak(t, db, user.ID, 4, 4, fixedNow.AddDate(0, 0, -1))

	res, err := svc.UpdateStreak(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, StreakExtended, res.Outcome)
	assert.Equal(t, 5, res.Streak.CurrentStreak)
	assert.GreaterOrEqual(t, res.Streak.LongestStreak, res.Streak.CurrentStreak)
	assert.Equal(t, 5, res.PointsAwarded)
}

func TestUpdateStreakGapResets(t *testing.T) {
	svc, db := newTestService(t)
	svc.SetClock(func() time.Time { return fixedNow })
	user := testutil.CreateUser(t, db, "")
	seedStreak(t, db, user.ID, 9, 12, fixedNow.AddDate(0, 0, -3))

	res, err := svc.UpdateStreak(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, StreakStarted, res.Outcome)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 12, res.Streak.LongestStreak)
	require.NotNil(t, res.Streak.StreakStartDate)
	assert.Equal(t, 10, res.Streak.StreakStartDate.Day())
}

func TestUpdateStreakSameDayIsNoop(t *testing.T) {
	svc, db := newTestService(t)
	svc.SetClock(func() time.Time { return fixedNow })
	user := testutil.CreateUser(t, db, "")
	seedStreak(t, db, user.ID, 3, 3, fixedNow)

	res, err := svc.UpdateStreak(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, StreakUnchanged, res.Outcome)
	assert.Equal(t, 3, res.Streak.CurrentStreak)
	assert.Zero(t, res.PointsAwarded)

	var n int64
	db.Model(&gm.PointTransaction{}).Where("user_id = ?", user.ID).Count(&n)
	assert.Zero(t, n)
}

func TestUpdateStreakSeventhDayAwardsBonus(t *testing.T) {
	svc, db := newTestService(t)
	svc.SetClock(func() time.Time { return fixedNow })
	user := testutil.CreateUser(t, db, "")
	seedStreak(t, db, user.ID, 6, 6, fixedNow.AddDate(0, 0, -1))

	res, err := svc.UpdateStreak(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Streak.CurrentStreak)
	assert.Equal(t, 25, res.PointsAwarded)

	up, err := svc.Summary(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, up.StreakPoints)
}

func TestUpdateStreakUsesConfiguredZone(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	svc, db := newTestService(t)
	svc.loc = zone
	// 2026-03-10 22:00 UTC is already 2026-03-11 in UTC+10
	svc.SetClock(func() time.Time { return time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC) })
	user := testutil.CreateUser(t, db, "")
	last := time.Date(2026, 3, 10, 0, 0, 0, 0, zone)
	require.NoError(t, db.Create(&gm.Streak{UserID: user.ID, CurrentStreak: 2, LongestStreak: 2, LastActivityDate: &last}).Error)

	res, err := svc.UpdateStreak(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, StreakExtended, res.Outcome)
	assert.Equal(t, 3, res.Streak.CurrentStreak)
}

func TestUpdateStreakConcurrentCallsCountOnce(t *testing.T) {
	svc, db := newTestService(t)
	svc.SetClock(func() time.Time { return fixedNow })
	user := testutil.CreateUser(t, db, "")
	seedStreak(t, db, user.ID, 1, 1, fixedNow.AddDate(0, 0, -1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStreak(context.Background(), user.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	streak, err := svc.GetStreak(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)

	var n int64
	db.Model(&gm.PointTransaction{}).Where("user_id = ? AND type = ?", user.ID, gm.TransactionDailyLogin).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestAtRiskUserIDs(t *testing.T) {
	svc, db := newTestService(t)
	svc.SetClock(func() time.Time { return fixedNow })
	atRisk := testutil.CreateUser(t, db, "")
	active := testutil.CreateUser(t, db, "")
	lapsed := testutil.CreateUser(t, db, "")
	seedStreak(t, db, atRisk.ID, 3, 3, fixedNow.AddDate(0, 0, -1))
	seedStreak(t, db, active.ID, 3, 3, fixedNow)
	seedStreak(t, db, lapsed.ID, 3, 3, fixedNow.AddDate(0, 0, -4))

	ids, err := svc.AtRiskUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{atRisk.ID}, ids)
}
