package validation

import "strings"

// RequestUploadRequest mirrors the fields needed for upload-grant validation.
type RequestUploadRequest struct {
	Name string
	Size int64
}

// maxUploadSize caps direct client uploads at 500 MiB.
const maxUploadSize = 500 << 20

// ValidateRequestUploadRequest validates the fields of an upload-grant request.
func ValidateRequestUploadRequest(req RequestUploadRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}

	if req.Size < 0 {
		errs = append(errs, FieldError{Field: "size", Message: "size must not be negative"})
	} else if req.Size > maxUploadSize {
		errs = append(errs, FieldError{Field: "size", Message: "size exceeds the 500 MiB upload limit"})
	}

	return errs
}
