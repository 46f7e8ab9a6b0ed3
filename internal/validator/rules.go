package validator

import (
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"talky/internal/models"
)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-role-name", validateRoleName)
	mustRegister("notblank", validateNotBlank)
}

func validateRoleName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empties
	}
	switch value {
	case models.RoleUser, models.RoleSuperuser:
		return true
	default:
		return false
	}
}

// validateNotBlank rejects whitespace-only strings that 'required'
// would let through.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
