package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/database"
	"github.com/Ariffin97/portal-mpa-sub001/models"
)

type MongoApplicationStore struct {
	coll *mongo.Collection
	// ids is the registry of every identifier ever issued. Entries are never
	// removed, so an id freed by Delete is not handed out again.
	ids *mongo.Collection
}

func NewMongoApplicationStore(db *mongo.Database) *MongoApplicationStore {
	return &MongoApplicationStore{
		coll: db.Collection(database.ApplicationsCollection),
		ids:  db.Collection(database.ApplicationIDsCollection),
	}
}

func (s *MongoApplicationStore) Insert(ctx context.Context, app *models.Application) error {
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	if _, err := s.ids.InsertOne(ctx, bson.M{"_id": app.ApplicationID, "issuedAt": time.Now().UTC()}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return apperrors.Storage("reserve application id", err)
	}
	if _, err := s.coll.InsertOne(ctx, app); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return apperrors.Storage("insert application", err)
	}
	return nil
}

func (s *MongoApplicationStore) FindByApplicationID(ctx context.Context, applicationID string) (*models.Application, error) {
	var app models.Application
	err := s.coll.FindOne(ctx, bson.M{models.FieldApplicationID: applicationID}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("application %s not found", applicationID)
		}
		return nil, apperrors.Storage("find application", err)
	}
	return &app, nil
}

func (s *MongoApplicationStore) ExistsByApplicationID(ctx context.Context, applicationID string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{models.FieldApplicationID: applicationID}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperrors.Storage("count applications", err)
	}
	return n > 0, nil
}

func (s *MongoApplicationStore) UpdateFields(ctx context.Context, applicationID string, fields map[string]interface{}) (*models.Application, error) {
	return s.findAndSet(ctx, bson.M{models.FieldApplicationID: applicationID}, applicationID, fields)
}

func (s *MongoApplicationStore) UpdateFieldsIf(ctx context.Context, applicationID string, current models.Status, fields map[string]interface{}) (*models.Application, error) {
	app, err := s.findAndSet(ctx, bson.M{
		models.FieldApplicationID: applicationID,
		models.FieldStatus:        current,
	}, applicationID, fields)
	if err == nil || !errors.Is(err, apperrors.ErrNotFound) {
		return app, err
	}
	// Nothing matched: either the record is gone or its status moved on.
	exists, existsErr := s.ExistsByApplicationID(ctx, applicationID)
	if existsErr != nil {
		return nil, existsErr
	}
	if exists {
		return nil, apperrors.Conflict("application %s is no longer %q", applicationID, current)
	}
	return nil, err
}

func (s *MongoApplicationStore) findAndSet(ctx context.Context, filter bson.M, applicationID string, fields map[string]interface{}) (*models.Application, error) {
	if err := applyFields(&models.Application{}, fields); err != nil {
		return nil, apperrors.Validation("", err.Error())
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var app models.Application
	err := s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("application %s not found", applicationID)
		}
		return nil, apperrors.Storage("update application", err)
	}
	return &app, nil
}

func (s *MongoApplicationStore) List(ctx context.Context, f ListFilter) ([]models.Application, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter[models.FieldStatus] = f.Status
	}
	if f.OrganizationID != nil {
		filter[models.FieldOrganizationID] = *f.OrganizationID
	}
	if f.State != "" {
		filter["event.state"] = f.State
	}
	if !f.Since.IsZero() {
		filter[models.FieldSubmissionDate] = bson.M{"$gte": f.Since}
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{models.FieldApplicationID: pattern},
			{"event.eventTitle": pattern},
			{"event.organiserName": pattern},
			{"event.venue": pattern},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: models.FieldSubmissionDate, Value: -1}}).
		SetLimit(int64(f.EffectiveLimit())).
		SetSkip(int64(f.Skip))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperrors.Storage("list applications", err)
	}
	defer cursor.Close(ctx)

	apps := []models.Application{}
	if err = cursor.All(ctx, &apps); err != nil {
		return nil, 0, apperrors.Storage("decode applications", err)
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Storage("count applications", err)
	}
	return apps, total, nil
}

func (s *MongoApplicationStore) CountByStatus(ctx context.Context, orgID *primitive.ObjectID, state string) (map[models.Status]int64, error) {
	match := bson.M{}
	if orgID != nil {
		match[models.FieldOrganizationID] = *orgID
	}
	if state != "" {
		match["event.state"] = state
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$" + models.FieldStatus, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Storage("aggregate status counts", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.Status `bson:"_id"`
		Count  int64         `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, apperrors.Storage("decode status counts", err)
	}

	counts := make(map[models.Status]int64, len(rows))
	for _, st := range models.AllStatuses() {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *MongoApplicationStore) Delete(ctx context.Context, applicationID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{models.FieldApplicationID: applicationID})
	if err != nil {
		return apperrors.Storage("delete application", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("application %s not found", applicationID)
	}
	return nil
}
