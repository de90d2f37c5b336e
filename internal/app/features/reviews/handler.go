// internal/app/features/reviews/handler.go
package reviews

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	reviewstore "github.com/ChasovDS/konkursant-grants/internal/app/store/reviews"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
)

// Handler owns the expert review write and read handlers. Every write
// keeps the project's cached review refs in step with the reviews
// collection.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Reviews  *reviewstore.Store
	Projects *projectstore.Store
}

// NewHandler constructs a Handler bound to the given stores and logger.
func NewHandler(
	db *mongo.Database,
	audit *auditlog.Logger,
	reviews *reviewstore.Store,
	projects *projectstore.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
		Reviews:  reviews,
		Projects: projects,
	}
}
