// models/audit_log.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions.
const (
	AuditSubmit       = "submit"
	AuditStatusChange = "status_change"
	AuditResubmit     = "resubmit"
	AuditDelete       = "delete"
)

// AuditLog records one status transition on an application.
type AuditLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationID  string             `bson:"applicationId" json:"applicationId"`
	OrganizationID primitive.ObjectID `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	ActorID        string             `bson:"actorId,omitempty" json:"actorId,omitempty"`
	ActorRole      string             `bson:"actorRole,omitempty" json:"actorRole,omitempty"`
	Action         string             `bson:"action" json:"action"`
	FromStatus     Status             `bson:"fromStatus,omitempty" json:"fromStatus,omitempty"`
	ToStatus       Status             `bson:"toStatus,omitempty" json:"toStatus,omitempty"`
	Note           string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
