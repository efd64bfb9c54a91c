package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"dronefeed/internal/model"
)

var validate = validator.New()

// Validate checks a scenario against its struct tags and the rules the tags
// cannot express.
func Validate(sc *model.Scenario) error {
	if err := validate.Struct(sc); err != nil {
		return formatValidationError(err)
	}
	for i, z := range sc.Zones {
		if z.Contains(sc.Depot) {
			return fmt.Errorf("validation failed:\n  deadzone %d covers the depot: %w", i, ErrMalformed)
		}
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}
	return fmt.Errorf("validation failed:\n  %s: %w", strings.Join(messages, "\n  "), ErrMalformed)
}
