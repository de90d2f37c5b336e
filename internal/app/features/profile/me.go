// internal/app/features/profile/me.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

// abbreviatedUser is the session-only profile shape. Serving it skips
// the database entirely, which is what the SPA header polls.
type abbreviatedUser struct {
	ID       string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role_name"`
	Avatar   string `json:"avatar,omitempty"`
}

// ServeMe handles GET /users/me. With ?abbreviated=true the response is
// built from the session snapshot without a database round trip.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if r.URL.Query().Get("abbreviated") == "true" {
		httpjson.Write(w, http.StatusOK, abbreviatedUser{
			ID:       su.ID,
			FullName: su.Name,
			Email:    su.Email,
			Role:     su.Role.String(),
			Avatar:   su.Avatar,
		})
		return
	}

	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("profile lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, user)
}

type updateMeRequest struct {
	FullName   *string           `json:"full_name"`
	FirstName  *string           `json:"first_name"`
	LastName   *string           `json:"last_name"`
	MiddleName *string           `json:"middle_name"`
	Phone      *string           `json:"phone"`
	City       *string           `json:"city"`
	Gender     *string           `json:"gender"`
	Birthday   *string           `json:"birthday"`
	Avatar     *string           `json:"avatar"`
	Squad      *models.SquadInfo `json:"squad_info"`
}

func (req *updateMeRequest) validate() []httpjson.FieldError {
	var errs []httpjson.FieldError
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		errs = append(errs, httpjson.FieldError{Field: "full_name", Message: "full name cannot be empty"})
	}
	return errs
}

// HandleUpdateMe handles PATCH /users/me. Role, email, and status are
// not reachable from this endpoint; absent fields are left untouched.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateMeRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpjson.FieldErrors(w, "profile update rejected", errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.UpdateProfile(ctx, uid, userstore.ProfileUpdate{
		FullName:   req.FullName,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
		City:       req.City,
		Gender:     req.Gender,
		Birthday:   req.Birthday,
		Avatar:     req.Avatar,
		Squad:      req.Squad,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("profile update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Refresh the snapshot cookie so the header shows the new name
	// without waiting for the next token fallback.
	if err := h.SessionMgr.SignIn(w, r, &auth.SessionUser{
		ID:     user.ID.Hex(),
		Name:   user.FullName,
		Email:  user.Email,
		Role:   user.Role,
		Avatar: user.Avatar,
	}); err != nil {
		h.Log.Warn("session snapshot refresh failed", zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, user)
}
