package gamificationValidator

import (
	"strings"

	gm "learnhub/models/gamification"
	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

type AdjustPointsRequest struct {
	UserID uint   `json:"user_id" validate:"required,gt=0"`
	Points int    `json:"points" validate:"required,ne=0,min=-100000,max=100000"`
	Reason string `json:"reason" validate:"notblank,max=255"`
}

type CreateBadgeRequest struct {
	Name           string            `json:"name" validate:"notblank,max=100"`
	Description    string            `json:"description" validate:"max=500"`
	Icon           string            `json:"icon" validate:"max=100"`
	Rarity         gm.BadgeRarity    `json:"rarity" validate:"omitempty,oneof=COMMON RARE EPIC LEGENDARY"`
	Points         int               `json:"points" validate:"gte=0,lte=10000"`
	Condition      gm.BadgeCondition `json:"condition" validate:"required"`
	ConditionValue *int              `json:"condition_value" validate:"omitempty,gte=0"`
}

func AdjustPoints() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AdjustPointsRequest)
		return validators.Body(c, reqData, "validatedAdjustment", func() {
			reqData.Reason = strings.TrimSpace(reqData.Reason)
		})
	}
}

// CreateBadge checks the request shape; whether the condition is supported
// is decided by the gamification service.
func CreateBadge() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateBadgeRequest)
		return validators.Body(c, reqData, "validatedBadge", func() {
			reqData.Name = strings.TrimSpace(reqData.Name)
			reqData.Rarity = gm.BadgeRarity(strings.ToUpper(string(reqData.Rarity)))
			reqData.Condition = gm.BadgeCondition(strings.ToUpper(strings.TrimSpace(string(reqData.Condition))))
		})
	}
}
