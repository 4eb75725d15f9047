package authController

import (
	"errors"
	"time"

	"learnhub/config"
	"learnhub/database"
	"learnhub/middleware"
	"learnhub/models"
	gm "learnhub/models/gamification"
	"learnhub/services"
	"learnhub/services/gamification"
	"learnhub/utils"
	authValidator "learnhub/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func saltRound() int {
	if config.AppConfig == nil || config.AppConfig.SaltRound < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return config.AppConfig.SaltRound
}

func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSignup").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	log := services.App.Log
	db := database.Database.Db

	// Check if email already exists
	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&existing).Error; err != nil {
		log.Error("signup lookup failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}
	if existing > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), saltRound())
	if err != nil {
		log.Error("password hashing failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Role:     models.RoleUser,
		Password: string(hashedPassword),
	}
	if err := db.Create(&newUser).Error; err != nil {
		log.Error("saving user failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	// The welcome bonus is best effort; the account exists either way.
	if _, err := services.App.Gamification.Award(c.UserContext(), gamification.AwardRequest{
		UserID: newUser.ID,
		Type:   gm.TransactionFirstTimeBonus,
	}); err != nil {
		log.Warn("welcome bonus failed", "userId", newUser.ID, "error", err)
	}

	token, err := middleware.GenerateJWT(newUser.ID, newUser.Name, newUser.Role, newUser.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", fiber.Map{
		"user":  newUser,
		"token": token,
	})
}

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	log := services.App.Log
	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("login lookup failed", "error", err)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	loginAt := time.Now()
	if err := db.Model(&user).Update("last_login", loginAt).Error; err != nil {
		log.Warn("saving last login failed", "userId", user.ID, "error", err)
	}
	user.LastLogin = &loginAt

	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = forwarded
	}
	loginTracking := models.LoginTracking{
		UserID:    user.ID,
		IPAddress: ip,
		Device:    c.Get("User-Agent"),
		Timestamp: loginAt,
	}
	if err := db.Create(&loginTracking).Error; err != nil {
		log.Warn("saving login tracking failed", "userId", user.ID, "error", err)
	}

	// Logging in counts as the day's activity.
	streak, err := services.App.Gamification.UpdateStreak(c.UserContext(), user.ID)
	if err != nil {
		log.Warn("streak update on login failed", "userId", user.ID, "error", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":   user,
		"token":  token,
		"streak": streak,
	})
}

func LoginHistoryList(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	page, limit, offset := utils.Paginate(c.QueryInt("page", 1), c.QueryInt("limit", 10), 100)

	var loginTracking []models.LoginTracking
	var total int64
	db := database.Database.Db.Model(&models.LoginTracking{}).Where("user_id = ?", userId)
	if err := db.Count(&total).Error; err != nil {
		return middleware.ErrorResponse(c, services.App.Log, err)
	}
	if err := db.Order("timestamp desc").Offset(offset).Limit(limit).Find(&loginTracking).Error; err != nil {
		return middleware.ErrorResponse(c, services.App.Log, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login History List.", fiber.Map{
		"loginTracking": loginTracking,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
