// internal/app/features/events/handler.go
package events

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	eventstore "github.com/ChasovDS/konkursant-grants/internal/app/store/events"
	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
)

// Handler owns the event CRUD, roster, and project attachment handlers.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Events   *eventstore.Store
	Projects *projectstore.Store
	Users    *userstore.Store
}

// NewHandler constructs a Handler bound to the given stores and logger.
func NewHandler(
	db *mongo.Database,
	audit *auditlog.Logger,
	events *eventstore.Store,
	projects *projectstore.Store,
	users *userstore.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
		Events:   events,
		Projects: projects,
		Users:    users,
	}
}
