package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub/config"
	"learnhub/database"
	"learnhub/locker"
	"learnhub/logger"
	"learnhub/routers"
	"learnhub/services"
	"learnhub/services/enrollment"
	"learnhub/services/notification"
	"learnhub/services/scheduler"
	"learnhub/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb()
	db := database.Database.Db

	var lk locker.Locker = locker.NewMemory()
	if cfg.RedisURL != "" {
		redisLock, err := locker.NewRedis(cfg.RedisURL)
		if err != nil {
			appLog.Fatal("redis connection failed", "error", err)
		}
		defer redisLock.Close()
		lk = redisLock
		appLog.Info("using redis streak lock")
	}

	services.App = services.Build(db, appLog, services.Options{
		AppURL:   cfg.AppURL,
		Location: cfg.Location(),
		Locker:   lk,
		Mailer:   utils.NewMailer(cfg, appLog),
		Payments: enrollment.NewVerifier(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := services.App.Gamification.SeedDefaultBadges(ctx); err != nil {
		appLog.Error("seeding default badges failed", "error", err)
	}

	// Notifications follow domain events for the life of the process.
	go services.App.Notifications.Consume(ctx, services.App.Events.Subscribe(ctx, "notifications", 256, notification.Topics...))

	sched := scheduler.New(services.App.Gamification, services.App.Notifications, appLog, scheduler.Options{
		ReminderSpec:  cfg.StreakReminderCron,
		RetentionDays: cfg.NotificationRetentionDays,
		Location:      cfg.Location(),
	})
	if err := sched.Start(); err != nil {
		appLog.Fatal("scheduler start failed", "error", err)
	}

	app := routers.NewApp(routers.Options{AccessLog: true})

	go func() {
		<-ctx.Done()
		appLog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			appLog.Error("server shutdown failed", "error", err)
		}
	}()

	appLog.Info("server is running", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Error("server stopped", "error", err)
	}

	sched.Stop()
	services.App.Notifications.Wait()
}
