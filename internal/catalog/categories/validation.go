package categories

import (
	"strings"

	"github.com/fcgregorio/jbj-trading/internal/shared"
)

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func validate(c Category) error {
	if c.Name == "" {
		return shared.NewValidationError("name", "required")
	}
	if len(c.Name) > 255 {
		return shared.NewValidationError("name", "must be at most 255 characters")
	}
	return nil
}
