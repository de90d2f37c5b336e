// internal/app/features/events/projects.go
package events

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/policy/eventpolicy"
	"github.com/ChasovDS/konkursant-grants/internal/app/policy/projectpolicy"
	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/gates"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

// attachTarget resolves both sides of an attach/detach request and
// checks that the caller may either manage the event or edit the
// project. Writes the error response itself; ok=false means done.
func (h *Handler) attachTarget(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Event, *models.Project, bool) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "event_id must be a valid id")
		return nil, nil, false
	}
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "project_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "project_id must be a valid id")
		return nil, nil, false
	}

	event, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return nil, nil, false
		}
		h.Log.Error("event lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil, nil, false
	}

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return nil, nil, false
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil, nil, false
	}

	canManage, err := eventpolicy.CanManage(ctx, h.DB, r, event.ID, event.Creator.UserID)
	if err != nil {
		h.Log.Error("event policy check failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil, nil, false
	}
	// Applicants may submit their own project to an event.
	if !canManage && !projectpolicy.CanEdit(r, project.AuthorID) {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return nil, nil, false
	}

	return event, project, true
}

// HandleAttachProject handles PATCH /events/{event_id}/project/{project_id}.
// The link is kept on both documents.
func (h *Handler) HandleAttachProject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, project, ok := h.attachTarget(ctx, w, r)
	if !ok {
		return
	}

	if err := h.Events.AttachProject(ctx, event.ID, project.ID); err != nil {
		h.Log.Error("project attach failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.Projects.AttachEvent(ctx, project.ID, event.ID); err != nil {
		h.Log.Error("event backlink failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventEventUpdated, uid, event.ID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDetachProject handles DELETE /events/{event_id}/project/{project_id}.
func (h *Handler) HandleDetachProject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, project, ok := h.attachTarget(ctx, w, r)
	if !ok {
		return
	}

	if err := h.Events.DetachProject(ctx, event.ID, project.ID); err != nil {
		h.Log.Error("project detach failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.Projects.DetachEvent(ctx, project.ID, event.ID); err != nil {
		h.Log.Error("event backlink removal failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventEventUpdated, uid, event.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ServeProjects handles GET /events/{event_id}/projects: the paged
// summaries of every project attached to the event.
func (h *Handler) ServeProjects(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "event_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("event lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	page := paging.Parse(r)
	items, total, err := h.Projects.List(ctx, projectstore.ListFilter{EventID: &eventID}, page)
	if err != nil {
		h.Log.Error("event project list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.NewPaged(items, total, page.Page, page.Limit))
}
