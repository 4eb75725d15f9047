package utils

import (
	"context"
	"testing"

	"learnhub/config"
	"learnhub/logger"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	page, limit, offset := Paginate(0, 0, 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	page, limit, offset = Paginate(3, 500, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 100, offset)
}

func TestNotificationEmailEscapes(t *testing.T) {
	content := NotificationEmail("<b>Ann</b>", "Badge earned", "You earned \"First Steps\"", "https://learn.example.com/badges")
	assert.Equal(t, "Badge earned", content.Subject)
	assert.Contains(t, content.HTML, "&lt;b&gt;Ann&lt;/b&gt;")
	assert.Contains(t, content.HTML, "https://learn.example.com/badges")
}

func TestNewMailerSelection(t *testing.T) {
	log := logger.Nop()

	assert.IsType(t, &SendGridMailer{}, NewMailer(&config.Config{SendGridAPIKey: "SG.x", EmailSender: "a@b.c"}, log))
	assert.IsType(t, &SMTPMailer{}, NewMailer(&config.Config{EmailSender: "a@b.c", Password: "pw", SMTPHost: "smtp", SMTPPort: "587"}, log))

	console := NewMailer(&config.Config{}, log)
	assert.IsType(t, &ConsoleMailer{}, console)
	assert.NoError(t, console.Send(context.Background(), "x@y.z", "hi", "<p>hi</p>"))
}
