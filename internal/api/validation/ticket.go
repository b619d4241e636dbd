package validation

import "strings"

// CreateTicketRequest mirrors the fields needed for create ticket validation.
type CreateTicketRequest struct {
	Subject string
	Body    string
}

// ValidateCreateTicketRequest validates the fields of a create ticket request.
func ValidateCreateTicketRequest(req CreateTicketRequest) []FieldError {
	var errs []FieldError

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		errs = append(errs, FieldError{Field: "subject", Message: "subject is required"})
	} else if len(subject) > 255 {
		errs = append(errs, FieldError{Field: "subject", Message: "subject must be at most 255 characters"})
	}

	if strings.TrimSpace(req.Body) == "" {
		errs = append(errs, FieldError{Field: "body", Message: "body is required"})
	}

	return errs
}
