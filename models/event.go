// models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application event types pushed to connected dashboards.
const (
	EventSubmitted     = "APPLICATION_SUBMITTED"
	EventStatusChanged = "APPLICATION_STATUS_CHANGED"
	EventResubmitted   = "APPLICATION_RESUBMITTED"
	EventDeleted       = "APPLICATION_DELETED"
)

// ApplicationEvent describes a committed change to one application.
type ApplicationEvent struct {
	Type           string             `json:"type"`
	ApplicationID  string             `json:"applicationId"`
	OrganizationID primitive.ObjectID `json:"organizationId,omitempty"`
	Status         Status             `json:"status,omitempty"`
	FromStatus     Status             `json:"fromStatus,omitempty"`
	ActorID        string             `json:"actorId,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}
