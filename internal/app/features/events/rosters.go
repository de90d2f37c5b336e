// internal/app/features/events/rosters.go
package events

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	eventstore "github.com/ChasovDS/konkursant-grants/internal/app/store/events"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
)

// rosterParams parses the {roster} and {user_id} URL segments, writing
// the error response itself on failure.
func rosterParams(w http.ResponseWriter, r *http.Request) (eventstore.Roster, primitive.ObjectID, bool) {
	roster, ok := eventstore.ParseRoster(chi.URLParam(r, "roster"))
	if !ok {
		httpjson.Error(w, http.StatusNotFound, "unknown roster")
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "user_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "user_id must be a valid id")
		return "", primitive.NilObjectID, false
	}
	return roster, userID, true
}

// HandleAssign handles PATCH /events/{event_id}/{roster}/{user_id}:
// puts the user on the named roster. Managers assigning other managers
// is allowed; only the admin tier and the creator can do it implicitly
// through the manage policy.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	roster, userID, ok := rosterParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event := h.getEventForManage(ctx, w, r)
	if event == nil {
		return
	}

	// The roster must reference a real account.
	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("user lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.Events.Assign(ctx, event.ID, roster, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("roster assign failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventEventUpdated, uid, event.ID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnassign handles DELETE /events/{event_id}/{roster}/{user_id}.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	roster, userID, ok := rosterParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event := h.getEventForManage(ctx, w, r)
	if event == nil {
		return
	}

	if err := h.Events.Unassign(ctx, event.ID, roster, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("roster unassign failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventEventUpdated, uid, event.ID)
	w.WriteHeader(http.StatusNoContent)
}
