package auth

import (
	"fmt"

	apperr "chat-vault/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest carries the fields checked before any account is created.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=32"`
	Password string `validate:"required,min=8,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

type passwordRequest struct {
	Password string `validate:"required,min=8,max=72"`
}

// ValidatePassword applies the password policy alone, for password changes.
func ValidatePassword(password string) error {
	if err := validate.Struct(passwordRequest{Password: password}); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}
