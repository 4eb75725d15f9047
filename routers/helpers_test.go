package routers

import (
	"strconv"

	nm "learnhub/models/notification"
	"learnhub/services/notification"
)

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func notificationFor(userID uint) notification.BulkRequest {
	return notification.BulkRequest{
		UserIDs: []uint{userID},
		Type:    nm.TypeAnnouncement,
		Title:   "Maintenance",
		Message: "Back soon",
	}
}
