package controllers

import (
	"learnhub/middleware"
	"learnhub/services"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

func CreateReview(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedReview").(*courseValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	res, err := services.App.Reviews.Create(c.UserContext(), userId, c.Locals("courseId").(uint), reqData.Rating, reqData.Comment)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review submitted successfully!", res)
}

func ListReviews(c *fiber.Ctx) error {
	page, err := services.App.Reviews.List(c.UserContext(), c.Locals("courseId").(uint), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reviews fetched successfully!", page)
}
