package courseValidator

import (
	"strings"

	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type ConfirmPurchaseRequest struct {
	PaymentID string `json:"payment_id" validate:"notblank,max=100"`
}

type WatchTimeRequest struct {
	Seconds int `json:"seconds" validate:"gte=0,lte=86400"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func ConfirmPurchase() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ConfirmPurchaseRequest)
		return validators.Body(c, reqData, "validatedPurchase", func() {
			reqData.PaymentID = strings.TrimSpace(reqData.PaymentID)
		})
	}
}

func WatchTime() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(WatchTimeRequest), "validatedWatchTime", nil)
	}
}

func CreateReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ReviewRequest)
		return validators.Body(c, reqData, "validatedReview", func() {
			reqData.Comment = strings.TrimSpace(reqData.Comment)
		})
	}
}
