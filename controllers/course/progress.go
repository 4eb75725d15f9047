package controllers

import (
	"learnhub/middleware"
	"learnhub/services"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// MarkLessonComplete completes a lesson for the caller
func MarkLessonComplete(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	res, err := services.App.Progress.MarkLessonComplete(c.UserContext(), userId, c.Locals("lessonId").(uint))
	if err != nil {
		return fail(c, err)
	}
	message := "Lesson marked as complete!"
	if res.AlreadyCompleted {
		message = "Lesson already completed."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, res)
}

func RecordWatchTime(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedWatchTime").(*courseValidator.WatchTimeRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	rec, err := services.App.Progress.RecordWatchTime(c.UserContext(), userId, c.Locals("lessonId").(uint), reqData.Seconds)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Watch time recorded.", rec)
}

// GetUserProgress returns the caller's completion for a course
func GetUserProgress(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	progress, err := services.App.Progress.CourseProgress(c.UserContext(), userId, c.Locals("courseId").(uint))
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", progress)
}
