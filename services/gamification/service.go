// Package gamification owns the point ledger, level curve, badge grants and
// daily streaks.
package gamification

import (
	"time"

	"learnhub/locker"
	"learnhub/logger"
	"learnhub/services/events"

	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	pub    events.Publisher
	locker locker.Locker
	loc    *time.Location
	now    func() time.Time
}

func New(db *gorm.DB, log *logger.Logger, pub events.Publisher, lk locker.Locker, loc *time.Location) *Service {
	if pub == nil {
		pub = events.Discard
	}
	if lk == nil {
		lk = locker.NewMemory()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		db:     db,
		log:    log.Service("GamificationService"),
		pub:    pub,
		locker: lk,
		loc:    loc,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for streak day boundaries.
func (s *Service) SetClock(fn func() time.Time) {
	s.now = fn
}
