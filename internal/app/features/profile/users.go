// internal/app/features/profile/users.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// ServeList handles GET /users for the admin tier: paged user
// summaries, filtered by ?q= (name or email prefix) and ?role=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter := userstore.ListFilter{Query: r.URL.Query().Get("q")}
	if s := r.URL.Query().Get("role"); s != "" {
		role, ok := roles.Parse(s)
		if !ok {
			httpjson.Error(w, http.StatusBadRequest, "unknown role filter")
			return
		}
		filter.Role = role
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, total, err := h.Users.List(ctx, filter, page)
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.NewPaged(users, total, page.Page, page.Limit))
}

type setRoleRequest struct {
	Role string `json:"role_name"`
}

// HandleSetRole handles PATCH /users/{user_id}/role, admin only.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "user_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "user_id must be a valid id")
		return
	}

	var req setRoleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, valid := roles.Parse(req.Role)
	if !valid {
		httpjson.FieldErrors(w, "role change rejected", []httpjson.FieldError{
			{Field: "role_name", Message: "unknown role"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	previous, err := h.Users.SetRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("role change failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.AuditLog.RoleChanged(ctx, r, actorID, userID, previous.String(), role.String())

	httpjson.Write(w, http.StatusOK, map[string]string{
		"user_id":   userID.Hex(),
		"role_name": role.String(),
	})
}
