// Package repository is the persistence layer of the portal. Every method is
// a single round trip against one collection.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Ariffin97/portal-mpa-sub001/models"
)

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ApplicationStore persists tournament applications keyed by their public
// applicationId.
type ApplicationStore interface {
	// Insert fails with ErrDuplicate when applicationId is already taken.
	Insert(ctx context.Context, app *models.Application) error
	FindByApplicationID(ctx context.Context, applicationID string) (*models.Application, error)
	ExistsByApplicationID(ctx context.Context, applicationID string) (bool, error)
	// UpdateFields sets fields atomically and returns the updated record.
	UpdateFields(ctx context.Context, applicationID string, fields map[string]interface{}) (*models.Application, error)
	// UpdateFieldsIf is UpdateFields guarded by the current status. A record
	// in another status yields a conflict error and is left untouched.
	UpdateFieldsIf(ctx context.Context, applicationID string, current models.Status, fields map[string]interface{}) (*models.Application, error)
	List(ctx context.Context, filter ListFilter) ([]models.Application, int64, error)
	CountByStatus(ctx context.Context, orgID *primitive.ObjectID, state string) (map[models.Status]int64, error)
	Delete(ctx context.Context, applicationID string) error
}

type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type OrganizationStore interface {
	InsertOrganization(ctx context.Context, org *models.Organization) error
	FindOrganizationByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error)
}

type AuditStore interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	ListByApplication(ctx context.Context, applicationID string) ([]models.AuditLog, error)
}

// ListFilter narrows List. Zero values mean no restriction.
type ListFilter struct {
	Status         models.Status
	OrganizationID *primitive.ObjectID
	State          string
	Search         string
	Since          time.Time
	Skip           int
	Limit          int
}

// EffectiveLimit is Limit clamped to (0, MaxListLimit], defaulting to
// DefaultListLimit.
func (f ListFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	}
	return f.Limit
}

// applyFields mirrors a $set of fields onto app. Only the mutable workflow
// fields may be set.
func applyFields(app *models.Application, fields map[string]interface{}) error {
	for k, v := range fields {
		switch k {
		case models.FieldStatus:
			s, ok := v.(models.Status)
			if !ok {
				return fmt.Errorf("field %s: unexpected type %T", k, v)
			}
			app.Status = s
		case models.FieldRemarks, models.FieldRequiredInfo, models.FieldApplicantReply:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("field %s: unexpected type %T", k, v)
			}
			switch k {
			case models.FieldRemarks:
				app.Remarks = s
			case models.FieldRequiredInfo:
				app.RequiredInfo = s
			default:
				app.ApplicantReply = s
			}
		case models.FieldLastUpdated:
			ts, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("field %s: unexpected type %T", k, v)
			}
			app.LastUpdated = ts
		default:
			return fmt.Errorf("field %s cannot be updated", k)
		}
	}
	return nil
}
