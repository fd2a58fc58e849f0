package serverutils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest checks struct tags on a request DTO and maps violations to
// a 400 AppError.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			first := errs[0]
			return NewAppError(fiber.StatusBadRequest,
				fmt.Sprintf("field '%s' failed validation '%s'", first.Field(), first.Tag()))
		}
		return NewAppError(fiber.StatusBadRequest, "invalid request")
	}
	return nil
}
