package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"learnhub/config"
	"learnhub/logger"
	"learnhub/services/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, body) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var b body
	require.NoError(t, json.Unmarshal(raw, &b))
	return resp.StatusCode, b
}

func TestErrorResponseMapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{apperr.NewUnauthorized("nope"), fiber.StatusUnauthorized, "nope"},
		{apperr.NewNotFound("missing"), fiber.StatusNotFound, "missing"},
		{apperr.NewIneligible("not yet"), fiber.StatusUnprocessableEntity, "not yet"},
		{apperr.NewConflict("twice"), fiber.StatusConflict, "twice"},
		{apperr.Wrap(errors.New("disk on fire"), "failed to save"), fiber.StatusInternalServerError, "Internal server error!"},
		{errors.New("foreign"), fiber.StatusInternalServerError, "Internal server error!"},
		{fmt.Errorf("outer: %w", apperr.NewConflict("wrapped")), fiber.StatusConflict, "wrapped"},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return ErrorResponse(c, logger.Nop(), tc.err) })

			status, b := call(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.status, status)
			assert.False(t, b.Status)
			assert.Equal(t, tc.message, b.Message)
		})
	}
}

func TestErrorResponseEchoesDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ErrorResponse(c, logger.Nop(), apperr.NewIneligible("keep going").WithDetails(map[string]any{"percentage": 40}))
	})

	status, b := call(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.EqualValues(t, 40, b.Data["percentage"])
}

func TestJWTRoundTrip(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "middleware-test"}
	app := fiber.New()
	app.Get("/", JWTMiddleware, RequireRole("INSTRUCTOR"), func(c *fiber.Ctx) error {
		return JsonResponse(c, fiber.StatusOK, true, "ok", fiber.Map{"userId": c.Locals("userId"), "role": c.Locals("role")})
	})

	token, err := GenerateJWT(7, "Grace", "INSTRUCTOR", "grace@example.com")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, b := call(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 7, b.Data["userId"])

	learner, err := GenerateJWT(8, "Alan", "USER", "alan@example.com")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+learner)
	status, _ = call(t, app, req)
	assert.Equal(t, fiber.StatusForbidden, status)

	config.AppConfig = &config.Config{JWTKey: "rotated"}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, _ = call(t, app, req)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", token)
	status, b = call(t, app, req)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid Authorization header format", b.Message)
}
