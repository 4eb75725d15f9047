package notificationController

import (
	"learnhub/middleware"
	"learnhub/services"
	"learnhub/services/notification"
	notificationValidator "learnhub/validators/notification"

	"github.com/gofiber/fiber/v2"
)

func fail(c *fiber.Ctx, err error) error {
	return middleware.ErrorResponse(c, services.App.Log, err)
}

// ListNotifications returns the caller's notifications, newest first
func ListNotifications(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	page, limit := c.QueryInt("page", 1), c.QueryInt("limit", 20)
	rows, total, err := services.App.Notifications.List(c.UserContext(), userId, c.QueryBool("unread"), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notifications fetched successfully!", fiber.Map{
		"notifications": rows,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func UnreadCount(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	n, err := services.App.Notifications.UnreadCount(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Unread count fetched successfully!", fiber.Map{"unread": n})
}

func MarkRead(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	n, err := services.App.Notifications.MarkRead(c.UserContext(), userId, c.Locals("notificationId").(uint))
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification marked as read.", n)
}

func MarkAllRead(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	updated, err := services.App.Notifications.MarkAllRead(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "All notifications marked as read.", fiber.Map{"updated": updated})
}

func GetPreferences(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	prefs, err := services.App.Notifications.Preferences(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Preferences fetched successfully!", prefs)
}

func SetPreference(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedPreference").(*notificationValidator.PreferenceRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if err := services.App.Notifications.SetPreference(c.UserContext(), userId, reqData.Type, *reqData.EmailEnabled); err != nil {
		return fail(c, err)
	}
	prefs, err := services.App.Notifications.Preferences(c.UserContext(), userId)
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Preference updated.", prefs)
}

// AdminBroadcast sends an announcement to the listed users, or to every learner.
func AdminBroadcast(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedBroadcast").(*notificationValidator.BroadcastRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if !notification.ValidType(reqData.Type) {
		return middleware.ValidationErrorResponse(c, map[string]string{"type": "Unknown notification type!"})
	}
	sent, err := services.App.Notifications.SendBulk(c.UserContext(), notification.BulkRequest{
		UserIDs:   reqData.UserIDs,
		Type:      reqData.Type,
		Title:     reqData.Title,
		Message:   reqData.Message,
		SendEmail: reqData.SendEmail,
	})
	if err != nil {
		return fail(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Notification sent.", fiber.Map{"recipients": sent})
}
