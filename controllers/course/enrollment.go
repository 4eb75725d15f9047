package controllers

import (
	"learnhub/middleware"
	"learnhub/services"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// EnrollInCourse enrolls the caller in a free course
func EnrollInCourse(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	enrollment, err := services.App.Enrollment.Enroll(c.UserContext(), userId, c.Locals("courseId").(uint))
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", enrollment)
}

// ConfirmPurchase enrolls the caller in a paid course after verifying the payment
func ConfirmPurchase(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedPurchase").(*courseValidator.ConfirmPurchaseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	enrollment, err := services.App.Enrollment.ConfirmPurchase(c.UserContext(), userId, c.Locals("courseId").(uint), reqData.PaymentID)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Purchase confirmed. Enrolled successfully!", enrollment)
}

func GetUserEnrollmentsList(c *fiber.Ctx) error {
	userId, ok := currentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	rows, err := services.App.Enrollment.ListForUser(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", rows)
}
