package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Display names for form fields
var fieldLabels = map[string]string{
	"EventDate":   "Event Date",
	"BookingDate": "Booking Date",
	"VenueID":     "Venue",
	"EventID":     "Event",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// validateInput runs the validate tags of input and returns nil or a
// *ValidationError keyed by struct field name.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", fieldLabel(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("The %s field is required.", fieldLabel(fe.Field()))
	}
}
