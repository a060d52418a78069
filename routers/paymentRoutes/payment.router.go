package paymentRoutes

import (
	paymentController "wallet-ledger/controllers/payment"
	"wallet-ledger/middleware"
	paymentValidator "wallet-ledger/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, h *paymentController.Handler, requireAdmin fiber.Handler) {
	paymentGroup := app.Group("/payments")

	// Processor callback; authenticated by verify_hash, not JWT
	paymentGroup.Post("/webhook", h.Webhook)

	cryptoGroup := paymentGroup.Group("/crypto")
	cryptoGroup.Post("/create", paymentValidator.CreateCryptoPayment(), middleware.JWTMiddleware, h.CreateCryptoPayment)
	cryptoGroup.Get("/", middleware.JWTMiddleware, h.ListCryptoPayments)
	cryptoGroup.Get("/currencies", middleware.JWTMiddleware, h.Currencies)
	cryptoGroup.Get("/order/:orderNumber", middleware.JWTMiddleware, h.GetCryptoPayment)

	adminGroup := paymentGroup.Group("/admin", middleware.JWTMiddleware, requireAdmin)
	adminGroup.Get("/crypto/:orderNumber", h.AdminGetCryptoPayment)
}
