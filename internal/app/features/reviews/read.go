// internal/app/features/reviews/read.go
package reviews

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/policy/reviewpolicy"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/gates"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
)

// ServeByProject handles GET /reviews/project/{project_id}: every
// review on the project, oldest first.
func (h *Handler) ServeByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "project_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "project_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !reviewpolicy.CanViewProjectReviews(r, project.AuthorID) {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return
	}

	reviews, err := h.Reviews.ListByProject(ctx, projectID)
	if err != nil {
		h.Log.Error("review list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.List(reviews))
}

// ServeMine handles GET /reviews/project/{project_id}/mine: the acting
// expert's own review. A missing review is a 200 with a null body, not
// an error; the SPA uses it to decide between the create and edit
// forms.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireReviewTier(w, r)
	if !res.OK {
		return
	}

	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "project_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "project_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	review, err := h.Reviews.GetMine(ctx, projectID, res.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Write(w, http.StatusOK, nil)
			return
		}
		h.Log.Error("review lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, review)
}

// ServeByExpert handles GET /reviews/expert/{expert_id}: a page of the
// expert's reviews across all projects, newest first.
func (h *Handler) ServeByExpert(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireReviewTier(w, r)
	if !res.OK {
		return
	}

	expertID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "expert_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "expert_id must be a valid id")
		return
	}

	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reviews, total, err := h.Reviews.ListByExpert(ctx, expertID, page)
	if err != nil {
		h.Log.Error("review list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.NewPaged(reviews, total, page.Page, page.Limit))
}
