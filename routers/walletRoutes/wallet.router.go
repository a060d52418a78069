package walletRoutes

import (
	walletController "wallet-ledger/controllers/wallet"
	"wallet-ledger/middleware"
	walletValidator "wallet-ledger/validators/wallet"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, h *walletController.Handler, requireAdmin fiber.Handler) {
	walletGroup := app.Group("/wallet")

	// User routes
	walletGroup.Get("/my-wallet", middleware.JWTMiddleware, h.GetMyWallet)
	walletGroup.Post("/top-up", walletValidator.TopUp(), middleware.JWTMiddleware, h.TopUp)
	walletGroup.Post("/withdraw", walletValidator.Withdraw(), middleware.JWTMiddleware, h.Withdraw)
	walletGroup.Get("/history", middleware.JWTMiddleware, h.GetWalletHistory)
	walletGroup.Post("/card", middleware.JWTMiddleware, walletValidator.Card(), h.AddCard)
	walletGroup.Get("/card", middleware.JWTMiddleware, h.GetCard)
	walletGroup.Delete("/card", middleware.JWTMiddleware, h.RemoveCard)
	walletGroup.Put("/payout-bank", walletValidator.PayoutBank(), middleware.JWTMiddleware, h.SetPayoutBank)

	transactionGroup := app.Group("/transactions", middleware.JWTMiddleware)
	transactionGroup.Get("/stats", h.GetTransactionStats)
	transactionGroup.Get("/:id", h.GetTransaction)

	// Admin routes
	adminGroup := walletGroup.Group("/admin", middleware.JWTMiddleware, requireAdmin)
	adminGroup.Post("/create/:userId", h.CreateWallet)
	adminGroup.Get("/user/:userId", h.GetUserWallet)
	adminGroup.Get("/user/:userId/history", h.GetUserWalletHistory)
	adminGroup.Patch("/user/:userId", walletValidator.AdminAdjust(), h.AdjustWallet)
	adminGroup.Delete("/user/:userId", h.DeleteWallet)
	adminGroup.Post("/credit", walletValidator.AdminCredit(), h.Credit)
	adminGroup.Patch("/transaction/:transactionId/approve", h.ApproveTransaction)
	adminGroup.Patch("/transaction/:transactionId/reject", walletValidator.Reject(), h.RejectTransaction)
}
