package validation

import "strings"

// CreateProjectRequest mirrors the fields needed for create project validation.
type CreateProjectRequest struct {
	Name     string
	AgencyID string
}

// ValidateCreateProjectRequest validates the fields of a create project request.
func ValidateCreateProjectRequest(req CreateProjectRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if strings.TrimSpace(req.AgencyID) == "" {
		errs = append(errs, FieldError{Field: "agencyId", Message: "agencyId is required"})
	}

	return errs
}
