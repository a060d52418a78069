package superAdminValidator

import (
	"wallet-ledger/middleware"
	"wallet-ledger/validators"

	"github.com/gofiber/fiber/v2"
)

type ListRequest struct {
	Page   int    `query:"page" json:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	Search string `query:"search" json:"search" validate:"max=100"`
}

type AccountStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended pending"`
}

// List validates the pagination query.
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := &ListRequest{Page: 1, Limit: 10}
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

func AccountStatus() fiber.Handler {
	return validators.Body[AccountStatusRequest]("validatedAccountStatus")
}
