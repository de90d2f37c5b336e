// internal/app/features/login/handler.go
package login

import (
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	sessionstore "github.com/ChasovDS/konkursant-grants/internal/app/store/sessions"
	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

// Handler owns the password sign-up and sign-in surface of the API.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Users      *userstore.Store
	Sessions   *sessionstore.Store // activity session tracking

	// DevMode unlocks the token endpoint used by local frontend work.
	DevMode bool
}

// NewHandler creates a new login handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	users *userstore.Store,
	sessStore *sessionstore.Store,
	devMode bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Users:      users,
		Sessions:   sessStore,
		DevMode:    devMode,
	}
}

func sessionUserOf(u *models.User) *auth.SessionUser {
	return &auth.SessionUser{
		ID:     u.ID.Hex(),
		Name:   u.FullName,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
}

// signIn issues the browser credentials for u and opens an activity
// session record. Session-record failures are logged but do not block
// the sign-in.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u *models.User) error {
	if err := h.SessionMgr.SignIn(w, r, sessionUserOf(u)); err != nil {
		return err
	}

	if _, err := h.Sessions.Create(r.Context(), u.ID, clientIP(r), r.UserAgent()); err != nil {
		h.Log.Warn("failed to record activity session",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
	}
	return nil
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}
