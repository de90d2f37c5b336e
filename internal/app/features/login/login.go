// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/normalize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login.
//
// Wrong email and wrong password answer the same 401 so the endpoint
// does not leak which addresses have accounts; the audit trail keeps
// the distinction.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, normalize.Email(req.Email))
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("user lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(req.Password)); err != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, user.ID, user.Email)
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if normalize.Status(user.Status) == "disabled" {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, user.ID, user.Email)
		httpjson.Error(w, http.StatusForbidden, "account is disabled")
		return
	}

	if err := h.signIn(w, r, user); err != nil {
		h.Log.Error("sign-in failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, user.ID, "password", user.Email)
	httpjson.Write(w, http.StatusOK, user)
}

// HandleLogout handles POST /auth/logout. Safe to call signed out.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, uid, ok := authz.UserCtx(r); ok {
		if err := h.Sessions.CloseForUser(ctx, uid); err != nil {
			h.Log.Warn("failed to close activity sessions", zap.Error(err))
		}
		h.AuditLog.Logout(ctx, r, uid)
	}

	h.SessionMgr.SignOut(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDevToken handles GET /auth/dev-token?user_id=… and mints a
// bearer token for local frontend work. Disabled outside dev mode.
func (h *Handler) HandleDevToken(w http.ResponseWriter, r *http.Request) {
	if !h.DevMode {
		httpjson.Error(w, http.StatusNotFound, "not found")
		return
	}

	oid, err := primitive.ObjectIDFromHex(r.URL.Query().Get("user_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "user_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, oid)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	token, err := h.SessionMgr.IssueToken(sessionUserOf(user))
	if err != nil {
		h.Log.Error("dev token issue failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"token": token})
}

type setTokenRequest struct {
	Token string `json:"token"`
}

// HandleSetToken handles POST /auth/token: the client presents a bearer
// token and receives the regular cookie pair for it. Dev-mode only, the
// counterpart of HandleDevToken.
func (h *Handler) HandleSetToken(w http.ResponseWriter, r *http.Request) {
	if !h.DevMode {
		httpjson.Error(w, http.StatusNotFound, "not found")
		return
	}

	var req setTokenRequest
	if err := httpjson.Decode(r, &req); err != nil || req.Token == "" {
		httpjson.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	claims, err := h.SessionMgr.VerifyToken(req.Token)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid token")
		return
	}

	oid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, oid)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if normalize.Status(user.Status) == "disabled" {
		httpjson.Error(w, http.StatusForbidden, "account is disabled")
		return
	}

	if err := h.signIn(w, r, user); err != nil {
		h.Log.Error("sign-in failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, user)
}
