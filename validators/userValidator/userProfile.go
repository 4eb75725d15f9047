package userValidator

import (
	"strings"

	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	Name         string `json:"name" validate:"notblank,min=3,max=100"`
	ProfileImage string `json:"profileImage" validate:"omitempty,url"`
}

func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProfileRequest)
		return validators.Body(c, reqData, "validatedProfile", func() {
			reqData.Name = strings.TrimSpace(reqData.Name)
			reqData.ProfileImage = strings.TrimSpace(reqData.ProfileImage)
		})
	}
}
