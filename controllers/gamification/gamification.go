package gamificationController

import (
	"learnhub/middleware"
	"learnhub/services"
	"learnhub/services/gamification"
	gamificationValidator "learnhub/validators/gamification"

	"github.com/gofiber/fiber/v2"
)

func fail(c *fiber.Ctx, err error) error {
	return middleware.ErrorResponse(c, services.App.Log, err)
}

func GetMyPoints(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	summary, err := services.App.Gamification.Summary(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Points fetched successfully!", summary)
}

func GetPointsHistory(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	page, limit := c.QueryInt("page", 1), c.QueryInt("limit", 20)
	rows, total, err := services.App.Gamification.History(c.UserContext(), userId, page, limit)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Points history fetched successfully!", fiber.Map{
		"transactions": rows,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func GetLeaderboard(c *fiber.Ctx) error {
	rows, err := services.App.Gamification.Leaderboard(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Leaderboard fetched successfully!", rows)
}

// ListBadges returns the active badge catalog
func ListBadges(c *fiber.Ctx) error {
	badges, err := services.App.Gamification.ListBadges(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Badges fetched successfully!", badges)
}

func GetMyBadges(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	badges, err := services.App.Gamification.UserBadges(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Badges fetched successfully!", badges)
}

func GetMyStreak(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	streak, err := services.App.Gamification.GetStreak(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Streak fetched successfully!", streak)
}

// CheckIn records today's activity without logging in again
func CheckIn(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	res, err := services.App.Gamification.UpdateStreak(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	message := "Checked in!"
	if res.Outcome == gamification.StreakUnchanged {
		message = "Already checked in today."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, res)
}

func AdminAdjustPoints(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAdjustment").(*gamificationValidator.AdjustPointsRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	res, err := services.App.Gamification.Adjust(c.UserContext(), reqData.UserID, reqData.Points, reqData.Reason)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Points adjusted successfully!", res)
}

func AdminCreateBadge(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedBadge").(*gamificationValidator.CreateBadgeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	badge, err := services.App.Gamification.CreateBadge(c.UserContext(), gamification.CreateBadgeInput{
		Name:           reqData.Name,
		Description:    reqData.Description,
		Icon:           reqData.Icon,
		Rarity:         reqData.Rarity,
		Points:         reqData.Points,
		Condition:      reqData.Condition,
		ConditionValue: reqData.ConditionValue,
	})
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Badge created successfully!", badge)
}
