// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	eventstore "github.com/ChasovDS/konkursant-grants/internal/app/store/events"
	"github.com/ChasovDS/konkursant-grants/internal/app/store/oauthstate"
	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	reviewstore "github.com/ChasovDS/konkursant-grants/internal/app/store/reviews"
	sessionstore "github.com/ChasovDS/konkursant-grants/internal/app/store/sessions"
	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
)

// DBDeps holds the Mongo client and handles shared across features.
type DBDeps struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectDB establishes the MongoDB connection and verifies it with a
// ping so a bad URI fails startup instead of the first request.
func ConnectDB(ctx context.Context, cfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(cfg.MongoMaxPoolSize).
		SetMinPoolSize(cfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))
	return DBDeps{Client: client, Database: client.Database(cfg.MongoDatabase)}, nil
}

// EnsureSchema creates the indexes every store relies on. Index builds
// are idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}
	stores := map[string]indexed{
		"users":       userstore.New(deps.Database),
		"projects":    projectstore.New(deps.Database),
		"events":      eventstore.New(deps.Database),
		"reviews":     reviewstore.New(deps.Database),
		"sessions":    sessionstore.New(deps.Database),
		"audit":       audit.New(deps.Database),
		"oauth_state": oauthstate.New(deps.Database),
	}
	for name, s := range stores {
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes for %s: %w", name, err)
		}
	}
	logger.Info("database indexes ensured", zap.Int("stores", len(stores)))
	return nil
}
