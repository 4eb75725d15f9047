// Package services wires the domain services together for the HTTP layer.
package services

import (
	"time"

	"learnhub/locker"
	"learnhub/logger"
	"learnhub/services/certificate"
	"learnhub/services/enrollment"
	"learnhub/services/events"
	"learnhub/services/gamification"
	"learnhub/services/notification"
	"learnhub/services/progress"
	"learnhub/services/review"
	"learnhub/utils"

	"gorm.io/gorm"
)

type Registry struct {
	Log           *logger.Logger
	Events        *events.Hub
	Gamification  *gamification.Service
	Progress      *progress.Service
	Certificates  *certificate.Service
	Notifications *notification.Service
	Enrollment    *enrollment.Service
	Reviews       *review.Service
}

type Options struct {
	AppURL   string
	Location *time.Location
	Locker   locker.Locker
	Mailer   utils.Mailer
	Payments *enrollment.Verifier
}

// App is the registry the controllers read, set once at startup.
var App *Registry

// Build constructs every service over db. Events published by the services
// go to the returned hub.
func Build(db *gorm.DB, log *logger.Logger, opts Options) *Registry {
	hub := events.NewHub(log)
	game := gamification.New(db, log, hub, opts.Locker, opts.Location)
	prog := progress.New(db, log, game)
	return &Registry{
		Log:           log,
		Events:        hub,
		Gamification:  game,
		Progress:      prog,
		Certificates:  certificate.New(db, log, prog, game, hub, opts.AppURL),
		Notifications: notification.New(db, log, opts.Mailer, opts.AppURL),
		Enrollment:    enrollment.New(db, log, opts.Payments, hub),
		Reviews:       review.New(db, log, game),
	}
}
