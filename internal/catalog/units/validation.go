package units

import (
	"strings"

	"github.com/fcgregorio/jbj-trading/internal/shared"
)

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func validate(u Unit) error {
	if u.Name == "" {
		return shared.NewValidationError("name", "required")
	}
	if len(u.Name) > 255 {
		return shared.NewValidationError("name", "must be at most 255 characters")
	}
	return nil
}
