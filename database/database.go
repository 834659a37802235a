// database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/config"
)

// Collection names.
const (
	ApplicationsCollection   = "applications"
	ApplicationIDsCollection = "application_ids"
	UsersCollection          = "users"
	OrganizationsCollection  = "organizations"
	AuditLogsCollection      = "audit_logs"
)

// Connect opens a client against cfg.URI and verifies it with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(15 * time.Second).
		SetSocketTimeout(20 * time.Second).
		SetMaxPoolSize(cfg.MaxPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	defer cancelPing()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("connected to MongoDB", zap.String("database", cfg.Database))
	return client, nil
}

func Disconnect(client *mongo.Client, log *zap.Logger) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warn("MongoDB disconnect warning", zap.Error(err))
	}
}

// EnsureIndexes creates the indexes the stores rely on. The unique index on
// applicationId is what makes identifier allocation race free.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		ApplicationsCollection: {
			{
				Keys:    bson.D{{Key: "applicationId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_application_id"),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submissionDate", Value: -1}}},
			{Keys: bson.D{{Key: "organizationId", Value: 1}, {Key: "submissionDate", Value: -1}}},
		},
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_user_email"),
			},
		},
		OrganizationsCollection: {
			{
				Keys:    bson.D{{Key: "registrationNumber", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_org_registration"),
			},
		},
		AuditLogsCollection: {
			{Keys: bson.D{{Key: "applicationId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
