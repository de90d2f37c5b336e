// internal/app/features/projects/crud.go
package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/policy/projectpolicy"
	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/gates"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/sanitize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

// projectRequest carries the author-editable project content.
type projectRequest struct {
	Title              string              `json:"title"`
	Region             string              `json:"region"`
	Contacts           models.ContactInfo  `json:"contacts"`
	BriefInfo          string              `json:"brief_info"`
	ProblemDescription string              `json:"problem_description"`
	TargetGroups       string              `json:"target_groups"`
	MainGoal           string              `json:"main_goal"`
	Tasks              []string            `json:"tasks"`
	Geography          []string            `json:"geography"`
	Team               []models.TeamMember `json:"team"`
	Budget             []models.BudgetItem `json:"budget"`
}

func (req *projectRequest) validate() []httpjson.FieldError {
	var errs []httpjson.FieldError
	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, httpjson.FieldError{Field: "title", Message: "title is required"})
	}
	for _, item := range req.Budget {
		if item.Amount < 0 {
			errs = append(errs, httpjson.FieldError{Field: "budget", Message: "amounts cannot be negative"})
			break
		}
	}
	return errs
}

// contentUpdate maps the request onto the store's update shape with all
// user-supplied text stripped of markup.
func (req *projectRequest) contentUpdate() projectstore.ContentUpdate {
	team := make([]models.TeamMember, len(req.Team))
	for i, m := range req.Team {
		team[i] = models.TeamMember{
			FullName:     sanitize.Text(m.FullName),
			Role:         sanitize.Text(m.Role),
			Competencies: sanitize.Text(m.Competencies),
			Email:        sanitize.Text(m.Email),
		}
	}
	return projectstore.ContentUpdate{
		Title:              sanitize.Text(req.Title),
		Region:             sanitize.Text(req.Region),
		Contacts:           req.Contacts,
		BriefInfo:          sanitize.Text(req.BriefInfo),
		ProblemDescription: sanitize.Text(req.ProblemDescription),
		TargetGroups:       sanitize.Text(req.TargetGroups),
		MainGoal:           sanitize.Text(req.MainGoal),
		Tasks:              sanitize.TextSlice(req.Tasks),
		Geography:          sanitize.TextSlice(req.Geography),
		Team:               team,
		Budget:             req.Budget,
	}
}

func projectIDParam(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "project_id"))
}

// HandleCreate handles POST /projects. Any signed-in account may
// register a project; it is owned by its creator.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	var req projectRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpjson.FieldErrors(w, "project rejected", errs)
		return
	}

	upd := req.contentUpdate()
	project := models.Project{
		Title:              upd.Title,
		AuthorID:           res.UserID,
		AuthorName:         res.Name,
		Region:             upd.Region,
		Contacts:           upd.Contacts,
		BriefInfo:          upd.BriefInfo,
		ProblemDescription: upd.ProblemDescription,
		TargetGroups:       upd.TargetGroups,
		MainGoal:           upd.MainGoal,
		Tasks:              upd.Tasks,
		Geography:          upd.Geography,
		Team:               upd.Team,
		Budget:             upd.Budget,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Projects.Create(ctx, project)
	if err != nil {
		h.Log.Error("project create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.AuditLog.Mutation(ctx, r, audit.EventProjectCreated, res.UserID, created.ID)
	httpjson.Write(w, http.StatusCreated, created)
}

// ServeGet handles GET /projects/{project_id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := projectIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "project_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	project, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !projectpolicy.CanView(r, project.AuthorID) {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return
	}

	httpjson.Write(w, http.StatusOK, project)
}

// HandleUpdate handles PATCH /projects/{project_id}: a full replace of
// the content fields by the author or the admin tier. The cached
// reviews array survives untouched.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := projectIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "project_id must be a valid id")
		return
	}

	var req projectRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpjson.FieldErrors(w, "project rejected", errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	project, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !projectpolicy.CanEdit(r, project.AuthorID) {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return
	}

	updated, err := h.Projects.UpdateContent(ctx, id, req.contentUpdate())
	if err != nil {
		h.Log.Error("project update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventProjectUpdated, uid, id)
	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /projects/{project_id}. Deleting a
// project also deletes its reviews; the cached refs die with the
// document itself.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := projectIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "project_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	project, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !projectpolicy.CanEdit(r, project.AuthorID) {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return
	}

	if _, err := h.Projects.Delete(ctx, id); err != nil {
		h.Log.Error("project delete failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := h.Reviews.DeleteByProject(ctx, id); err != nil {
		h.Log.Warn("failed to delete project reviews",
			zap.String("project_id", id.Hex()),
			zap.Error(err))
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventProjectDeleted, uid, id)
	w.WriteHeader(http.StatusNoContent)
}
