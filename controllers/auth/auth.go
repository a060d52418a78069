package authController

import (
	"errors"
	"strings"

	"wallet-ledger/logger"
	"wallet-ledger/middleware"
	"wallet-ledger/models"
	"wallet-ledger/validators"
	authValidator "wallet-ledger/validators/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db        *gorm.DB
	saltRound int
}

func NewHandler(db *gorm.DB, saltRound int) *Handler {
	if saltRound < bcrypt.MinCost {
		saltRound = bcrypt.DefaultCost
	}
	return &Handler{db: db, saltRound: saltRound}
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	reqData, ok := validators.Get[authValidator.SignupRequest](c, "validatedUser")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := h.db.WithContext(c.UserContext())
	email := strings.ToLower(strings.TrimSpace(reqData.Email))

	// Check if email already exists
	if err := db.Where("email = ?", email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), h.saltRound)
	if err != nil {
		logger.L().Error("hash password", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:          reqData.Name,
		Email:         email,
		Mobile:        reqData.Mobile,
		Password:      string(hashedPassword),
		Role:          models.RoleUser,
		AccountStatus: models.AccountStatusActive,
	}
	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
		}
		logger.L().Error("create user", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	logger.L().Info("user registered", zap.Uint("user_id", newUser.ID))
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	reqData, ok := validators.Get[authValidator.LoginRequest](c, "validatedLogin")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var user models.User
	err := h.db.WithContext(c.UserContext()).
		Where("email = ? AND is_deleted = false", strings.ToLower(strings.TrimSpace(reqData.Email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
		}
		logger.L().Error("find user for login", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}
	if user.AccountStatus == models.AccountStatusSuspended {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Account is suspended!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		logger.L().Error("generate token", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}
