package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Port    string
	AppURL  string
	LogMode string
	// debug, info, warn, error; empty keeps the mode's default
	LogLevel string
	// IANA zone used to cut calendar days for streaks
	Timezone string

	DBDriver   string // postgres, mysql, sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBPath     string // sqlite only

	JWTKey    string
	SaltRound int

	EmailSender    string
	Password       string // SMTP Password
	SMTPHost       string
	SMTPPort       string
	SendGridAPIKey string
	MailFromName   string

	PaymentBaseURL   string
	PaymentKeyID     string
	PaymentKeySecret string

	RedisURL string

	StreakReminderCron        string
	NotificationRetentionDays int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	AppConfig = &Config{
		Port:     v.GetString("PORT"),
		AppURL:   strings.TrimRight(v.GetString("APP_URL"), "/"),
		LogMode:  v.GetString("LOG_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Timezone: v.GetString("TIMEZONE"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBPort:     v.GetString("DB_PORT"),
		DBPath:     v.GetString("DB_PATH"),

		JWTKey:    v.GetString("JWT_SECRET_KEY"),
		SaltRound: v.GetInt("SALT_ROUND"),

		EmailSender:    v.GetString("EMAIL_SENDER"),
		Password:       v.GetString("PASSWORD"),
		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetString("SMTP_PORT"),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		MailFromName:   v.GetString("MAIL_FROM_NAME"),

		PaymentBaseURL:   strings.TrimRight(v.GetString("PAYMENT_BASE_URL"), "/"),
		PaymentKeyID:     v.GetString("PAYMENT_KEY_ID"),
		PaymentKeySecret: v.GetString("PAYMENT_KEY_SECRET"),

		RedisURL: v.GetString("REDIS_URL"),

		StreakReminderCron:        v.GetString("STREAK_REMINDER_CRON"),
		NotificationRetentionDays: v.GetInt("NOTIFICATION_RETENTION_DAYS"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.PaymentKeyID == "" {
		log.Println("Warning: PAYMENT_KEY_ID is empty. Paid enrollments will be rejected.")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_URL", "http://localhost:3000")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_PATH", "./data/learnhub.db")

	v.SetDefault("JWT_SECRET_KEY", "defaultSecret")
	v.SetDefault("SALT_ROUND", 10)

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("MAIL_FROM_NAME", "LearnHub")

	v.SetDefault("PAYMENT_BASE_URL", "https://api.razorpay.com/v1")

	v.SetDefault("STREAK_REMINDER_CRON", "0 20 * * *")
	v.SetDefault("NOTIFICATION_RETENTION_DAYS", 90)
}

// Location resolves the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Invalid TIMEZONE %q, falling back to UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}
