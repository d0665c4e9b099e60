package profile

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

type AccountStatus string

const (
	StatusActive          AccountStatus = "active"
	StatusPendingApproval AccountStatus = "pending_approval"
	StatusInactive        AccountStatus = "inactive"
)

// Profile is a user record keyed by the identity provider's user id
// (ExternalID). The role claim in issued tokens comes from here.
type Profile struct {
	ID         uuid.UUID
	ExternalID string
	Name       string
	Email      string
	Role       Role
	Status     AccountStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
