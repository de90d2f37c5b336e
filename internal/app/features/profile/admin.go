// internal/app/features/profile/admin.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
)

func userIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "user_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "user_id must be a valid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeUser handles GET /users/{user_id}/profile for the admin tier.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("user lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, user)
}

// HandleUpdateUser handles PUT /users/{user_id}/profile for the admin
// tier. Same field set as the self-service update; role, email, and
// status stay out of reach, the role endpoint owns role changes.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
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

	user, err := h.Users.UpdateProfile(ctx, userID, userstore.ProfileUpdate{
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
		h.Log.Error("user update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventUserUpdated, actorID, userID)

	httpjson.Write(w, http.StatusOK, user)
}

// HandleDeleteUser handles DELETE /users/{user_id}/profile for the
// admin tier. The account's projects and reviews are left in place;
// they carry their own author/reviewer ids for the record.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Users.Delete(ctx, userID)
	if err != nil {
		h.Log.Error("user delete failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventUserDeleted, actorID, userID)

	w.WriteHeader(http.StatusNoContent)
}
