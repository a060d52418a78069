package superAdminController

import (
	"errors"
	"strings"

	"wallet-ledger/logger"
	"wallet-ledger/middleware"
	"wallet-ledger/models"
	"wallet-ledger/validators"
	superAdminValidator "wallet-ledger/validators/superAdmin"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type userRow struct {
	models.User
	Wallet *models.Wallet `json:"wallet,omitempty"`
}

// UserList pages through non-deleted users with their wallets.
func (h *Handler) UserList(c *fiber.Ctx) error {
	reqData, ok := validators.Get[superAdminValidator.ListRequest](c, "validatedList")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := h.db.WithContext(c.UserContext())
	query := db.Model(&models.User{}).Where("is_deleted = ?", false)
	if s := strings.TrimSpace(reqData.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.L().Error("count users", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
	}

	var users []models.User
	offset := (reqData.Page - 1) * reqData.Limit
	if err := query.Order("id DESC").Offset(offset).Limit(reqData.Limit).Find(&users).Error; err != nil {
		logger.L().Error("list users", zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	var wallets []models.Wallet
	if len(ids) > 0 {
		if err := db.Where("user_id IN ?", ids).Find(&wallets).Error; err != nil {
			logger.L().Error("list wallets", zap.Error(err))
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user list!", nil)
		}
	}
	byUser := make(map[uint]*models.Wallet, len(wallets))
	for i := range wallets {
		byUser[wallets[i].UserID] = &wallets[i]
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{User: u, Wallet: byUser[u.ID]})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User List.", fiber.Map{
		"users": rows,
		"pagination": fiber.Map{
			"total": total,
			"page":  reqData.Page,
			"limit": reqData.Limit,
		},
	})
}

// UpdateAccountStatus activates or suspends a user. Suspended users cannot
// log in or open crypto payments.
func (h *Handler) UpdateAccountStatus(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}
	reqData, ok := validators.Get[superAdminValidator.AccountStatusRequest](c, "validatedAccountStatus")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if uint(userID) == middleware.UserID(c) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot change your own account status!", nil)
	}

	db := h.db.WithContext(c.UserContext())
	var user models.User
	if err := db.Where("id = ? AND is_deleted = false", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error!", nil)
	}
	if err := db.Model(&user).Update("account_status", reqData.Status).Error; err != nil {
		logger.L().Error("update account status", zap.Uint("user_id", user.ID), zap.Error(err))
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update account status!", nil)
	}
	user.AccountStatus = reqData.Status

	logger.L().Info("account status changed",
		zap.Uint("user_id", user.ID),
		zap.String("status", reqData.Status),
		zap.Uint("by", middleware.UserID(c)),
	)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Account status updated!", user)
}
