package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agencykit/portal/internal/api/validation"
)

func fields(errs []validation.FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateIssueCodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     validation.IssueCodeRequest
		invalid []string
	}{
		{"empty request is fine", validation.IssueCodeRequest{}, nil},
		{"valid fields", validation.IssueCodeRequest{Label: "Acme", ClientEmail: "a@b.example"}, nil},
		{"label too long", validation.IssueCodeRequest{Label: strings.Repeat("x", 256)}, []string{"label"}},
		{"bad email", validation.IssueCodeRequest{ClientEmail: "nope"}, []string{"clientEmail"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateIssueCodeRequest(tt.req)
			assert.ElementsMatch(t, tt.invalid, fields(errs))
		})
	}
}

func TestValidateCreateProjectRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     validation.CreateProjectRequest
		invalid []string
	}{
		{"valid", validation.CreateProjectRequest{Name: "Acme site", AgencyID: "x"}, nil},
		{"missing name", validation.CreateProjectRequest{AgencyID: "x"}, []string{"name"}},
		{"blank name", validation.CreateProjectRequest{Name: "   ", AgencyID: "x"}, []string{"name"}},
		{"name too long", validation.CreateProjectRequest{Name: strings.Repeat("x", 256), AgencyID: "x"}, []string{"name"}},
		{"missing agency", validation.CreateProjectRequest{Name: "Acme"}, []string{"agencyId"}},
		{"everything missing", validation.CreateProjectRequest{}, []string{"name", "agencyId"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateCreateProjectRequest(tt.req)
			assert.ElementsMatch(t, tt.invalid, fields(errs))
		})
	}
}

func TestValidateCreateTicketRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     validation.CreateTicketRequest
		invalid []string
	}{
		{"valid", validation.CreateTicketRequest{Subject: "Help", Body: "Bits fell off"}, nil},
		{"missing subject", validation.CreateTicketRequest{Body: "x"}, []string{"subject"}},
		{"subject too long", validation.CreateTicketRequest{Subject: strings.Repeat("x", 256), Body: "x"}, []string{"subject"}},
		{"missing body", validation.CreateTicketRequest{Subject: "Help"}, []string{"body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateCreateTicketRequest(tt.req)
			assert.ElementsMatch(t, tt.invalid, fields(errs))
		})
	}
}

func TestValidateRequestUploadRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     validation.RequestUploadRequest
		invalid []string
	}{
		{"valid", validation.RequestUploadRequest{Name: "brief.pdf", Size: 1024}, nil},
		{"zero size is fine", validation.RequestUploadRequest{Name: "empty.txt"}, nil},
		{"missing name", validation.RequestUploadRequest{Size: 1}, []string{"name"}},
		{"negative size", validation.RequestUploadRequest{Name: "x", Size: -1}, []string{"size"}},
		{"oversized", validation.RequestUploadRequest{Name: "x", Size: 501 << 20}, []string{"size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateRequestUploadRequest(tt.req)
			assert.ElementsMatch(t, tt.invalid, fields(errs))
		})
	}
}

func TestValidateAddWebsiteURLRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     validation.AddWebsiteURLRequest
		invalid []string
	}{
		{"valid", validation.AddWebsiteURLRequest{URL: "https://acme.example", Label: "Live"}, nil},
		{"http is fine", validation.AddWebsiteURLRequest{URL: "http://staging.acme.example"}, nil},
		{"no label is fine", validation.AddWebsiteURLRequest{URL: "https://acme.example"}, nil},
		{"missing url", validation.AddWebsiteURLRequest{Label: "Live"}, []string{"url"}},
		{"relative url", validation.AddWebsiteURLRequest{URL: "acme.example"}, []string{"url"}},
		{"wrong scheme", validation.AddWebsiteURLRequest{URL: "ftp://files.acme.example"}, []string{"url"}},
		{"long label", validation.AddWebsiteURLRequest{URL: "https://acme.example", Label: strings.Repeat("x", 201)}, []string{"label"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateAddWebsiteURLRequest(tt.req)
			assert.ElementsMatch(t, tt.invalid, fields(errs))
		})
	}
}
