package courseValidator

import (
	"strings"

	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

// ============ Catalog Validators ============

type CourseRequest struct {
	Title        string `json:"title" validate:"notblank,min=3,max=200"`
	Description  string `json:"description" validate:"notblank,min=5"`
	Price        int64  `json:"price" validate:"gte=0"`
	Currency     string `json:"currency" validate:"omitempty,len=3,alpha"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
}

type ModuleRequest struct {
	Title       string `json:"title" validate:"notblank,min=3,max=200"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
}

type LessonRequest struct {
	Title           string `json:"title" validate:"notblank,min=3,max=200"`
	Description     string `json:"description"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
	OrderIndex      int    `json:"order_index" validate:"gte=0"`
}

type PublishRequest struct {
	Publish *bool `json:"publish" validate:"required"`
}

func trimCourse(r *CourseRequest) {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
}

// CreateCourse validates course creation and update bodies
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseRequest)
		return validators.Body(c, reqData, "validatedCourse", func() { trimCourse(reqData) })
	}
}

func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ModuleRequest)
		return validators.Body(c, reqData, "validatedModule", func() {
			reqData.Title = strings.TrimSpace(reqData.Title)
		})
	}
}

func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonRequest)
		return validators.Body(c, reqData, "validatedLesson", func() {
			reqData.Title = strings.TrimSpace(reqData.Title)
			reqData.VideoURL = strings.TrimSpace(reqData.VideoURL)
		})
	}
}

func Publish() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return validators.Body(c, new(PublishRequest), "validatedPublish", nil)
	}
}
