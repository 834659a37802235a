// models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application is a tournament sanctioning request. Only the workflow fields
// (ApplicationID, Status, Remarks, RequiredInfo, SubmissionDate, LastUpdated)
// are interpreted by the backend; the rest is carried as submitted.
type Application struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationID  string             `bson:"applicationId" json:"applicationId"`
	Status         Status             `bson:"status" json:"status"`
	Remarks        string             `bson:"remarks" json:"remarks"`
	RequiredInfo   string             `bson:"requiredInfo" json:"requiredInfo"`
	ApplicantReply string             `bson:"applicantReply,omitempty" json:"applicantReply,omitempty"`
	SubmissionDate time.Time          `bson:"submissionDate" json:"submissionDate"`
	LastUpdated    time.Time          `bson:"lastUpdated" json:"lastUpdated"`

	OrganizationID primitive.ObjectID `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	SubmittedBy    primitive.ObjectID `bson:"submittedBy,omitempty" json:"submittedBy,omitempty"`

	Event EventDetails `bson:"event" json:"event"`
}

// EventDetails is the organiser-supplied payload of an application.
type EventDetails struct {
	OrganiserName        string    `bson:"organiserName" json:"organiserName"`
	ContactPerson        string    `bson:"contactPerson" json:"contactPerson"`
	ContactEmail         string    `bson:"contactEmail" json:"contactEmail"`
	ContactPhone         string    `bson:"contactPhone,omitempty" json:"contactPhone,omitempty"`
	RegistrationNumber   string    `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
	EventTitle           string    `bson:"eventTitle" json:"eventTitle"`
	EventType            string    `bson:"eventType,omitempty" json:"eventType,omitempty"`
	Classification       string    `bson:"classification,omitempty" json:"classification,omitempty"`
	Venue                string    `bson:"venue" json:"venue"`
	State                string    `bson:"state" json:"state"`
	City                 string    `bson:"city,omitempty" json:"city,omitempty"`
	StartDate            time.Time `bson:"startDate" json:"startDate"`
	EndDate              time.Time `bson:"endDate" json:"endDate"`
	Categories           []string  `bson:"categories,omitempty" json:"categories,omitempty"`
	ExpectedParticipants int       `bson:"expectedParticipants,omitempty" json:"expectedParticipants,omitempty"`
	ScoringFormat        string    `bson:"scoringFormat,omitempty" json:"scoringFormat,omitempty"`
	DataConsent          bool      `bson:"dataConsent" json:"dataConsent"`
	TermsConsent         bool      `bson:"termsConsent" json:"termsConsent"`
}

// Field names used in partial updates. They match the bson tags above.
const (
	FieldApplicationID  = "applicationId"
	FieldStatus         = "status"
	FieldRemarks        = "remarks"
	FieldRequiredInfo   = "requiredInfo"
	FieldApplicantReply = "applicantReply"
	FieldLastUpdated    = "lastUpdated"
	FieldSubmissionDate = "submissionDate"
	FieldOrganizationID = "organizationId"
)
