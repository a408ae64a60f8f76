package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserAttrs are the caller-supplied attributes for CreateUser. Active
// defaults to true when nil. Roles may name roles by string or pass
// Role entities; see CreateUser for the resolution rule.
type UserAttrs struct {
	Email    string `validate:"required,email"`
	Username string
	Active   *bool
	Roles    []RoleArg `validate:"-"`
}

// RoleAttrs are the caller-supplied attributes for CreateRole.
type RoleAttrs struct {
	Name        string `validate:"required"`
	Description string
}

// attrValidator wraps go-playground/validator for the create-time
// attribute structs.
type attrValidator struct {
	v *validator.Validate
}

func newAttrValidator() *attrValidator {
	return &attrValidator{v: validator.New()}
}

// Struct validates an attribute struct, flattening field errors into a
// single human-readable error.
func (av *attrValidator) Struct(i any) error {
	if err := av.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
