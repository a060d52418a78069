package superAdminRoutes

import (
	superAdminController "wallet-ledger/controllers/superAdmin"
	"wallet-ledger/middleware"
	superAdminValidator "wallet-ledger/validators/superAdmin"

	"github.com/gofiber/fiber/v2"
)

func SetupSuperAdminRoutes(app *fiber.App, h *superAdminController.Handler, requireAdmin fiber.Handler) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, requireAdmin)

	adminGroup.Get("/user/list", superAdminValidator.List(), h.UserList)
	adminGroup.Patch("/user/:userId/status", superAdminValidator.AccountStatus(), h.UpdateAccountStatus)
}
