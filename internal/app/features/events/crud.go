// internal/app/features/events/crud.go
package events

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/policy/eventpolicy"
	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	eventstore "github.com/ChasovDS/konkursant-grants/internal/app/store/events"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/gates"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/sanitize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

// eventRequest carries the manager-editable event content.
type eventRequest struct {
	Title       string    `json:"full_title"`
	Type        string    `json:"event_type"`
	Format      string    `json:"format"`
	Status      string    `json:"event_status"`
	Tags        []string  `json:"tags"`
	Logo        string    `json:"logo"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Contacts    string    `json:"contact_info"`
	StartDate   time.Time `json:"event_start_date"`
	EndDate     time.Time `json:"event_end_date"`
}

func (req *eventRequest) validate() []httpjson.FieldError {
	var errs []httpjson.FieldError
	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, httpjson.FieldError{Field: "full_title", Message: "title is required"})
	}
	if req.Status != "" && !models.ValidEventStatus(req.Status) {
		errs = append(errs, httpjson.FieldError{Field: "event_status", Message: "unknown status"})
	}
	if req.EndDate.IsZero() {
		if !req.StartDate.IsZero() {
			errs = append(errs, httpjson.FieldError{Field: "event_end_date", Message: "end date is required when a start date is set"})
		}
	} else if req.EndDate.Before(req.StartDate) {
		errs = append(errs, httpjson.FieldError{Field: "event_end_date", Message: "end date precedes start date"})
	}
	return errs
}

func (req *eventRequest) contentUpdate() eventstore.ContentUpdate {
	status := req.Status
	if status == "" {
		status = models.EventScheduled
	}
	return eventstore.ContentUpdate{
		Title:       sanitize.Text(req.Title),
		Type:        sanitize.Text(req.Type),
		Format:      sanitize.Text(req.Format),
		Status:      status,
		Tags:        sanitize.TextSlice(req.Tags),
		Logo:        req.Logo,
		Location:    sanitize.Text(req.Location),
		Description: sanitize.Text(req.Description),
		Contacts:    sanitize.Text(req.Contacts),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
}

func eventIDParam(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "event_id"))
}

// getEventForManage loads the event and answers 404/403/500 itself when
// the caller may not manage it. Returns nil when a response was already
// written.
func (h *Handler) getEventForManage(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.Event {
	id, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "event_id must be a valid id")
		return nil
	}

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return nil
		}
		h.Log.Error("event lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}

	allowed, err := eventpolicy.CanManage(ctx, h.DB, r, event.ID, event.Creator.UserID)
	if err != nil {
		h.Log.Error("event policy check failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if !allowed {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return nil
	}
	return event
}

// HandleCreate handles POST /events, event tier only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireEventTier(w, r)
	if !res.OK {
		return
	}

	var req eventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpjson.FieldErrors(w, "event rejected", errs)
		return
	}

	upd := req.contentUpdate()
	event := models.Event{
		Title:       upd.Title,
		Type:        upd.Type,
		Format:      upd.Format,
		Status:      upd.Status,
		Tags:        upd.Tags,
		Logo:        upd.Logo,
		Location:    upd.Location,
		Description: upd.Description,
		Contacts:    upd.Contacts,
		Creator:     models.EventCreator{UserID: res.UserID, FullName: res.Name},
		StartDate:   upd.StartDate,
		EndDate:     upd.EndDate,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Events.Create(ctx, event)
	if err != nil {
		if errors.Is(err, eventstore.ErrBadStatus) || errors.Is(err, eventstore.ErrBadDates) {
			httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.Log.Error("event create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.AuditLog.Mutation(ctx, r, audit.EventEventCreated, res.UserID, created.ID)
	httpjson.Write(w, http.StatusCreated, created)
}

// ServeGet handles GET /events/{event_id}. Events are public to every
// signed-in account.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "event_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("event lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, event)
}

// ServeList handles GET /events with ?status=, ?query=, ?mine=true.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	filter := eventstore.ListFilter{
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("query"),
	}
	if filter.Status != "" && !models.ValidEventStatus(filter.Status) {
		httpjson.Error(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	if r.URL.Query().Get("mine") == "true" {
		uid := res.UserID
		filter.CreatorID = &uid
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, total, err := h.Events.List(ctx, filter, page)
	if err != nil {
		h.Log.Error("event list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.NewPaged(items, total, page.Page, page.Limit))
}

// HandleUpdate handles PATCH /events/{event_id}: full replace of the
// content fields by the admin tier, the creator, or a roster manager.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpjson.FieldErrors(w, "event rejected", errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event := h.getEventForManage(ctx, w, r)
	if event == nil {
		return
	}

	updated, err := h.Events.UpdateContent(ctx, event.ID, req.contentUpdate())
	if err != nil {
		if errors.Is(err, eventstore.ErrBadStatus) || errors.Is(err, eventstore.ErrBadDates) {
			httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.Log.Error("event update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventEventUpdated, uid, event.ID)
	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /events/{event_id}. Attached projects
// keep existing; only their back-references to the event are removed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event := h.getEventForManage(ctx, w, r)
	if event == nil {
		return
	}

	if _, err := h.Events.Delete(ctx, event.ID); err != nil {
		h.Log.Error("event delete failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	for _, projectID := range event.ProjectIDs {
		if err := h.Projects.DetachEvent(ctx, projectID, event.ID); err != nil {
			h.Log.Warn("failed to detach project from deleted event",
				zap.String("project_id", projectID.Hex()),
				zap.Error(err))
		}
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventEventDeleted, uid, event.ID)
	w.WriteHeader(http.StatusNoContent)
}
