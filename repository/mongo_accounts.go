package repository

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/database"
	"github.com/Ariffin97/portal-mpa-sub001/models"
)

// MongoAccountStore serves users, organisations and the audit trail.
type MongoAccountStore struct {
	users  *mongo.Collection
	orgs   *mongo.Collection
	audits *mongo.Collection
}

func NewMongoAccountStore(db *mongo.Database) *MongoAccountStore {
	return &MongoAccountStore{
		users:  db.Collection(database.UsersCollection),
		orgs:   db.Collection(database.OrganizationsCollection),
		audits: db.Collection(database.AuditLogsCollection),
	}
}

func (s *MongoAccountStore) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return apperrors.Storage("insert user", err)
	}
	return nil
}

func (s *MongoAccountStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoAccountStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoAccountStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Storage("find user", err)
	}
	return &user, nil
}

func (s *MongoAccountStore) InsertOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	if _, err := s.orgs.InsertOne(ctx, org); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return apperrors.Storage("insert organization", err)
	}
	return nil
}

func (s *MongoAccountStore) FindOrganizationByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error) {
	var org models.Organization
	if err := s.orgs.FindOne(ctx, bson.M{"_id": id}).Decode(&org); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("organization not found")
		}
		return nil, apperrors.Storage("find organization", err)
	}
	return &org, nil
}

func (s *MongoAccountStore) Record(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := s.audits.InsertOne(ctx, entry); err != nil {
		return apperrors.Storage("insert audit log", err)
	}
	return nil
}

func (s *MongoAccountStore) ListByApplication(ctx context.Context, applicationID string) ([]models.AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.audits.Find(ctx, bson.M{"applicationId": applicationID}, opts)
	if err != nil {
		return nil, apperrors.Storage("list audit logs", err)
	}
	defer cursor.Close(ctx)

	logs := []models.AuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, apperrors.Storage("decode audit logs", err)
	}
	return logs, nil
}
