package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/players-api/internal/types"
)

// Birthday year bounds, inclusive.
const (
	MinBirthYear = 2000
	MaxBirthYear = 3000
)

// validate is built once; validator.Validate caches struct metadata and
// is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("birthyear", validBirthYear); err != nil {
		panic(fmt.Sprintf("register birthyear validation: %v", err))
	}
	return v
}

// validBirthYear checks that an epoch-millisecond timestamp falls in a
// calendar year (UTC) between MinBirthYear and MaxBirthYear.
func validBirthYear(fl validator.FieldLevel) bool {
	year := time.UnixMilli(fl.Field().Int()).UTC().Year()
	return year >= MinBirthYear && year <= MaxBirthYear
}

// Validate checks the supplied fields of a create or update payload.
// Fields left nil are not checked.
func Validate(data types.PlayerData) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, describe(e))
	}
	return fmt.Errorf("%w: %s", ErrBadRequest, strings.Join(messages, ", "))
}

// describe converts one validator.FieldError into a plain English sentence.
func describe(e validator.FieldError) string {
	switch e.Field() {
	case "Name":
		return "name must be between 1 and 12 characters"
	case "Title":
		return "title must be at most 30 characters"
	case "Experience":
		return "experience must be between 0 and 10000000"
	case "Birthday":
		return "birthday must fall between the years " +
			strconv.Itoa(MinBirthYear) + " and " + strconv.Itoa(MaxBirthYear)
	case "Race", "Profession":
		return fmt.Sprintf("%s %q is not a known value", strings.ToLower(e.Field()), e.Value())
	default:
		return fmt.Sprintf("field %s is invalid", e.Field())
	}
}

// missingRequired names the create-time required fields absent from data.
func missingRequired(data types.PlayerData) []string {
	var missing []string
	if data.Name == nil {
		missing = append(missing, "name")
	}
	if data.Title == nil {
		missing = append(missing, "title")
	}
	if data.Race == nil {
		missing = append(missing, "race")
	}
	if data.Birthday == nil {
		missing = append(missing, "birthday")
	}
	if data.Profession == nil {
		missing = append(missing, "profession")
	}
	if data.Experience == nil {
		missing = append(missing, "experience")
	}
	return missing
}

// ParseID validates a caller-supplied identifier string.
// "" and "0" are rejected as incorrect; anything that is not an integer
// is rejected as not a number.
func ParseID(raw string) (int64, error) {
	if raw == "" || raw == "0" {
		return 0, fmt.Errorf("%w: ID is incorrect", ErrBadRequest)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ID is not a number", ErrBadRequest)
	}
	return id, nil
}
