package items

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fcgregorio/jbj-trading/internal/shared"
)

func normalizeInput(input Input) Input {
	input.Name = strings.TrimSpace(input.Name)
	input.Remarks = strings.TrimSpace(input.Remarks)
	return input
}

func validateInput(input Input) error {
	fields := map[string]string{}
	if input.Name == "" {
		fields["name"] = "required"
	} else if len(input.Name) > 255 {
		fields["name"] = "must be at most 255 characters"
	}
	if input.SafetyStock < 0 {
		fields["safetyStock"] = "must not be negative"
	}
	if input.Stock < 0 {
		fields["stock"] = "must not be negative"
	}
	if input.UnitID == uuid.Nil {
		fields["unit"] = "required"
	}
	if input.CategoryID == uuid.Nil {
		fields["category"] = "required"
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return nil
}
