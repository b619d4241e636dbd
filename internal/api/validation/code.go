package validation

import (
	"net/mail"
	"strings"
)

// IssueCodeRequest mirrors the fields needed for issue-code validation.
type IssueCodeRequest struct {
	Label       string
	ClientEmail string
}

// ValidateIssueCodeRequest validates the fields of an issue-code request.
func ValidateIssueCodeRequest(req IssueCodeRequest) []FieldError {
	var errs []FieldError

	if len(strings.TrimSpace(req.Label)) > 255 {
		errs = append(errs, FieldError{Field: "label", Message: "label must be at most 255 characters"})
	}

	if req.ClientEmail != "" {
		if _, err := mail.ParseAddress(req.ClientEmail); err != nil {
			errs = append(errs, FieldError{Field: "clientEmail", Message: "clientEmail must be a valid email address"})
		}
	}

	return errs
}
