package notification

import (
	"context"
	"fmt"

	nm "learnhub/models/notification"
	"learnhub/services/events"
)

// Topics are the event types Consume acts on.
var Topics = []events.Type{
	events.CertificateIssued,
	events.Enrolled,
	events.CoursePublished,
	events.BadgeEarned,
}

// Consume turns domain events into notifications until ch closes. A failing
// or panicking handler is logged and the loop continues.
func (s *Service) Consume(ctx context.Context, ch <-chan events.Event) {
	for evt := range ch {
		s.handle(ctx, evt)
	}
}

func (s *Service) handle(ctx context.Context, evt events.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("notification handler panicked", "event", evt.Type, "panic", r)
		}
	}()

	var err error
	switch evt.Type {
	case events.CertificateIssued:
		err = s.onCertificateIssued(ctx, evt)
	case events.Enrolled:
		_, err = s.Create(ctx, CreateRequest{
			UserID:    evt.UserID,
			Type:      nm.TypeEnrollment,
			Title:     "Enrollment confirmed",
			Message:   fmt.Sprintf("You are now enrolled in %s. Happy learning!", evt.String("courseTitle")),
			Metadata:  map[string]any{"courseId": evt.CourseID},
			SendEmail: true,
		})
	case events.CoursePublished:
		_, err = s.SendBulk(ctx, BulkRequest{
			Type:      nm.TypeNewCourse,
			Title:     "New course available",
			Message:   fmt.Sprintf("%s is now open for enrollment.", evt.String("courseTitle")),
			Metadata:  map[string]any{"courseId": evt.CourseID},
			SendEmail: true,
		})
	case events.BadgeEarned:
		_, err = s.Create(ctx, CreateRequest{
			UserID:   evt.UserID,
			Type:     nm.TypeBadgeEarned,
			Title:    "Badge earned",
			Message:  fmt.Sprintf("You earned the %s badge.", evt.String("badgeName")),
			Metadata: map[string]any{"badgeId": evt.Data["badgeId"], "points": evt.Data["points"]},
		})
	default:
		return
	}
	if err != nil {
		s.log.Error("notification from event failed", "event", evt.Type, "userId", evt.UserID, "error", err)
	}
}

func (s *Service) onCertificateIssued(ctx context.Context, evt events.Event) error {
	course := evt.String("courseTitle")
	number := evt.String("certificateNumber")

	if _, err := s.Create(ctx, CreateRequest{
		UserID:    evt.UserID,
		Type:      nm.TypeCourseCompleted,
		Title:     "Course completed",
		Message:   fmt.Sprintf("Congratulations! You have completed %s.", course),
		Metadata:  map[string]any{"courseId": evt.CourseID},
		SendEmail: true,
	}); err != nil {
		return err
	}
	_, err := s.Create(ctx, CreateRequest{
		UserID:    evt.UserID,
		Type:      nm.TypeCertificateIssued,
		Title:     "Your certificate is ready",
		Message:   fmt.Sprintf("Your certificate for %s has been issued. Certificate number: %s.", course, number),
		Metadata:  map[string]any{"courseId": evt.CourseID, "certificateNumber": number},
		SendEmail: true,
	})
	return err
}
