package utils

import (
	"fmt"
	"html"
)

type EmailContent struct {
	Subject string
	HTML    string
}

// NotificationEmail builds the email mirrored from an in-app notification.
func NotificationEmail(userName, title, message, actionURL string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>%s</p>
	`, html.EscapeString(userName), html.EscapeString(message))
	if actionURL != "" {
		body += fmt.Sprintf(`<p><a href="%s" style="display:inline-block;padding:12px 24px;background-color:#d7b56d;color:#FFFFFF;text-decoration:none;border-radius:4px;font-weight:bold;">Open %s</a></p>`,
			html.EscapeString(actionURL), html.EscapeString(appName()))
	}
	return EmailContent{
		Subject: title,
		HTML:    RenderEmail(html.EscapeString(title), body),
	}
}

// Paginate clamps page and limit and returns the row offset.
func Paginate(page, limit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, (page - 1) * limit
}
