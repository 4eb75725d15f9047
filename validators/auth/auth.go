package authValidator

import (
	"strings"

	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"notblank,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup validator middleware
func Signup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SignupRequest)
		return validators.Body(c, reqData, "validatedSignup", func() {
			reqData.Name = strings.TrimSpace(reqData.Name)
			reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		})
	}
}

func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)
		return validators.Body(c, reqData, "validatedLogin", func() {
			reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		})
	}
}
