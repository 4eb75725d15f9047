package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"

	"learnhub/config"
	"learnhub/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer picks SendGrid when an API key is configured, then SMTP, then a
// mailer that only logs.
func NewMailer(cfg *config.Config, log *logger.Logger) Mailer {
	switch {
	case cfg.SendGridAPIKey != "":
		return &SendGridMailer{key: cfg.SendGridAPIKey, from: sgmail.NewEmail(cfg.MailFromName, cfg.EmailSender)}
	case cfg.EmailSender != "" && cfg.Password != "":
		return &SMTPMailer{
			host:     cfg.SMTPHost,
			port:     cfg.SMTPPort,
			from:     cfg.EmailSender,
			fromName: cfg.MailFromName,
			password: cfg.Password,
		}
	default:
		return &ConsoleMailer{log: log}
	}
}

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendGridMailer struct {
	key  string
	from *sgmail.Email
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail("", to), "", htmlBody)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type SMTPMailer struct {
	host     string
	port     string
	from     string
	fromName string
	password string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: %s <%s>\r\n", m.fromName, m.from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

type ConsoleMailer struct {
	log *logger.Logger
}

func (m *ConsoleMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.log.Info("email (not delivered, no mail provider configured)", "to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}

// RenderEmail wraps body in the shared branded layout.
func RenderEmail(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #00004D; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #00004D; line-height: 1.6; }
			.content h2 { color: #00004D; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>%s</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				You are receiving this because email notifications are enabled for your account.
			</div>
		</div>
	</body>
	</html>
	`, strings.ToUpper(appName()), title, bodyContent)
}

func appName() string {
	if config.AppConfig != nil && config.AppConfig.MailFromName != "" {
		return config.AppConfig.MailFromName
	}
	return "LearnHub"
}
