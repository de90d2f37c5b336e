// internal/app/features/projects/handler.go
package projects

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	reviewstore "github.com/ChasovDS/konkursant-grants/internal/app/store/reviews"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
)

// Handler owns the project CRUD and summary handlers.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Projects *projectstore.Store
	Reviews  *reviewstore.Store
}

// NewHandler constructs a Handler bound to the given stores and logger.
func NewHandler(
	db *mongo.Database,
	audit *auditlog.Logger,
	projects *projectstore.Store,
	reviews *reviewstore.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
		Projects: projects,
		Reviews:  reviews,
	}
}
