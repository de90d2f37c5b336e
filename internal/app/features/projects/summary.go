// internal/app/features/projects/summary.go
package projects

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/policy/reviewpolicy"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/rubric"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
)

// ServeReviewSummary handles GET /projects/{project_id}/reviews/summary:
// the rubric table the review page renders, one row per submitted
// review plus the grand average.
func (h *Handler) ServeReviewSummary(w http.ResponseWriter, r *http.Request) {
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

	if !reviewpolicy.CanViewProjectReviews(r, project.AuthorID) {
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return
	}

	reviews, err := h.Reviews.ListByProject(ctx, id)
	if err != nil {
		h.Log.Error("review list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, rubric.Summarize(reviews))
}
