package member

import (
	"time"

	"github.com/google/uuid"
)

// Roles a principal can hold on a project.
const (
	RoleAgencyAdmin  = "agency_admin"
	RoleAgencyMember = "agency_member"
	RoleClientAdmin  = "client_admin"
	RoleClientMember = "client_member"
)

// ValidRole reports whether role is one of the defined project roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAgencyAdmin, RoleAgencyMember, RoleClientAdmin, RoleClientMember:
		return true
	}
	return false
}

// Member represents a row in the project_members table. The composite
// primary key (project_id, user_id) makes duplicate joins impossible at the
// storage layer.
type Member struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      string
	CreatedAt time.Time
}
