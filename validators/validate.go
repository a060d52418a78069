package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"wallet-ledger/middleware"
	"wallet-ledger/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	// decimals reach validations as their exact string form, e.g.
	// `validate:"required,positive,money"`
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && models.ValidateMoney(d) == nil
	})
	return v
}

// Struct validates s and returns field messages keyed by JSON name.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", name)
	case "positive":
		return fmt.Sprintf("%s must be greater than 0!", name)
	case "money":
		return fmt.Sprintf("%s must have at most %d decimal places and %d integer digits!", name, models.MoneyScale, models.MoneyIntDigits)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s!", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long!", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long!", name, fe.Param())
	case "email":
		return "Invalid email!"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s!", name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters long!", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid!", name)
	}
}

// Body parses the request into a new T, validates it and stores it in
// c.Locals(key) for the handler.
func Body[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errs := Struct(reqData); len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// Get returns the request stored by Body.
func Get[T any](c *fiber.Ctx, key string) (*T, bool) {
	v, ok := c.Locals(key).(*T)
	return v, ok
}
