package notificationValidator

import (
	"strings"

	nm "learnhub/models/notification"
	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type PreferenceRequest struct {
	Type         nm.Type `json:"type" validate:"required"`
	EmailEnabled *bool   `json:"email_enabled" validate:"required"`
}

type BroadcastRequest struct {
	UserIDs   []uint  `json:"user_ids" validate:"omitempty,dive,gt=0"`
	Type      nm.Type `json:"type"`
	Title     string  `json:"title" validate:"notblank,max=200"`
	Message   string  `json:"message" validate:"notblank,max=2000"`
	SendEmail bool    `json:"send_email"`
}

func SetPreference() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PreferenceRequest)
		return validators.Body(c, reqData, "validatedPreference", func() {
			reqData.Type = nm.Type(strings.ToUpper(strings.TrimSpace(string(reqData.Type))))
		})
	}
}

// Broadcast validates an admin announcement. Missing user_ids targets every learner.
func Broadcast() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(BroadcastRequest)
		return validators.Body(c, reqData, "validatedBroadcast", func() {
			reqData.Title = strings.TrimSpace(reqData.Title)
			reqData.Message = strings.TrimSpace(reqData.Message)
			if reqData.Type == "" {
				reqData.Type = nm.TypeAnnouncement
			}
		})
	}
}
