// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles recognised by the portal. Admin and State users are reviewers.
const (
	RoleAdmin     = "admin"
	RoleState     = "state"
	RoleOrganiser = "organiser"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"fullName" json:"fullName"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	Role           string             `bson:"role" json:"role"`
	State          string             `bson:"state,omitempty" json:"state,omitempty"`
	OrganizationID primitive.ObjectID `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsReviewer reports whether role may invoke status transitions.
func IsReviewer(role string) bool {
	return role == RoleAdmin || role == RoleState
}
