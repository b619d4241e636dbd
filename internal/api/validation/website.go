package validation

import (
	"net/url"
	"strings"
)

// AddWebsiteURLRequest mirrors the fields needed for website-URL validation.
type AddWebsiteURLRequest struct {
	URL   string
	Label string
}

// ValidateAddWebsiteURLRequest validates the fields of an add-website-URL
// request. The address must parse as an absolute http(s) URL.
func ValidateAddWebsiteURLRequest(req AddWebsiteURLRequest) []FieldError {
	var errs []FieldError

	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		errs = append(errs, FieldError{Field: "url", Message: "url is required"})
	} else {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, FieldError{Field: "url", Message: "url must be an absolute http or https URL"})
		}
	}

	if len(req.Label) > 200 {
		errs = append(errs, FieldError{Field: "label", Message: "label must be at most 200 characters"})
	}

	return errs
}
