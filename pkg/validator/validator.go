package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MonthYearLayout is the calendar month key used by leaderboard snapshots.
const MonthYearLayout = "2006-01"

// Register installs the custom rules on gin's binding validator.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return v.RegisterValidation("month_year", validateMonthYear)
}

func validateMonthYear(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return IsMonthYear(value)
}

// IsMonthYear reports whether s is a valid "YYYY-MM" month key.
func IsMonthYear(s string) bool {
	_, err := time.Parse(MonthYearLayout, s)
	return err == nil
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "month_year":
		return fmt.Sprintf("%s must use the YYYY-MM format", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"AuthorID":     "author_id",
		"UserID":       "user_id",
		"PostID":       "post_id",
		"PostAuthorID": "post_author_id",
		"Title":        "title",
		"MonthYear":    "month_year",
		"Limit":        "limit",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
