package web

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	// ErrBadRequest marks a body that could not be decoded.
	ErrBadRequest = errors.New("invalid request body")
	// ErrValidation marks a decoded body that failed validation.
	ErrValidation = errors.New("validation failed")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindAndValidate parses the request body into T and validates it with the
// struct's validate tags.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &input, nil
}
