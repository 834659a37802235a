// models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Organization struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	RegistrationNumber string             `bson:"registrationNumber" json:"registrationNumber"`
	Email              string             `bson:"email" json:"email"`
	Phone              string             `bson:"phone,omitempty" json:"phone,omitempty"`
	State              string             `bson:"state" json:"state"`
	Address            string             `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
}
