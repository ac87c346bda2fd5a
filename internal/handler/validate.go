package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// fieldError is one entry of the validation error body: the offending
// field and the list of issues found on it.
type fieldError struct {
	Field  string   `json:"field"`
	Issues []string `json:"issues"`
}

// validationBody is the structured response for request validation
// failures: {message, errors: [{field, issues: [..]}]}.
type validationBody struct {
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors"`
}

func fieldIssue(field string, issues ...string) fieldError {
	return fieldError{Field: field, Issues: issues}
}

// validationFailed writes a 400 with the structured validation body.
func validationFailed(c echo.Context, errs ...fieldError) error {
	return c.JSON(http.StatusBadRequest, validationBody{
		Message: "validation failed",
		Errors:  errs,
	})
}
