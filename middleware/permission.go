package middleware

import (
	"context"
	"errors"

	"wallet-ledger/apperrors"
	"wallet-ledger/models"

	"github.com/gofiber/fiber/v2"
)

// UserLookup finds an active user by id.
type UserLookup func(ctx context.Context, userID uint) (*models.User, error)

// RequireAdmin lets the request through only when the authenticated user
// holds the admin role in the database.
func RequireAdmin(find UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		user, err := find(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}
		if !user.IsAdmin() {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}
