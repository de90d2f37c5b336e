// internal/app/features/reviews/write.go
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
	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	reviewstore "github.com/ChasovDS/konkursant-grants/internal/app/store/reviews"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/authz"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/gates"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/rubric"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/sanitize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// reviewRequest carries the criteria map and comment for create and
// replace alike.
type reviewRequest struct {
	Criteria map[string]int `json:"criteria_evaluation"`
	Comment  string         `json:"expert_comment"`
}

// HandleCreate handles POST /projects/{project_id}/reviews, experts
// only. Nothing touches the store until the rubric validates.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAnyRole(w, r, roles.Expert)
	if !res.OK {
		return
	}

	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "project_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "project_id must be a valid id")
		return
	}

	var req reviewRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment := sanitize.Text(req.Comment)
	if errs := rubric.Validate(req.Criteria, comment); len(errs) > 0 {
		httpjson.FieldErrors(w, "review rejected", errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("project lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := h.Reviews.Create(ctx, models.Review{
		ProjectID:    projectID,
		ReviewerID:   res.UserID,
		ReviewerName: res.Name,
		Criteria:     req.Criteria,
		Comment:      comment,
	})
	if err != nil {
		if errors.Is(err, reviewstore.ErrDuplicateReview) {
			httpjson.Error(w, http.StatusConflict, "you have already reviewed this project")
			return
		}
		h.Log.Error("review create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.syncProjectRef(ctx, created)

	h.AuditLog.Mutation(ctx, r, audit.EventReviewCreated, res.UserID, created.ID)
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleReplace handles PUT /reviews/{review_id}: an idempotent replace
// of criteria and comment by the review's owner or the admin tier.
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "review_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "review_id must be a valid id")
		return
	}

	var req reviewRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment := sanitize.Text(req.Comment)
	if errs := rubric.Validate(req.Criteria, comment); len(errs) > 0 {
		httpjson.FieldErrors(w, "review rejected", errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	review, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "review not found")
			return
		}
		h.Log.Error("review lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !reviewpolicy.CanEdit(r, review.ReviewerID) {
		httpjson.Error(w, http.StatusForbidden, "you may only edit your own review")
		return
	}

	updated, err := h.Reviews.Update(ctx, id, req.Criteria, comment)
	if err != nil {
		h.Log.Error("review update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.syncProjectRef(ctx, *updated)

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventReviewUpdated, uid, id)
	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /reviews/{review_id} by the owner or the
// admin tier. A foreign expert's delete is rejected, not ignored.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "review_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "review_id must be a valid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	review, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "review not found")
			return
		}
		h.Log.Error("review lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !reviewpolicy.CanEdit(r, review.ReviewerID) {
		httpjson.Error(w, http.StatusForbidden, "you may only delete your own review")
		return
	}

	if _, err := h.Reviews.Delete(ctx, id); err != nil {
		h.Log.Error("review delete failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.Projects.RemoveReviewRef(ctx, review.ProjectID, id); err != nil {
		h.Log.Warn("failed to remove cached review ref",
			zap.String("project_id", review.ProjectID.Hex()),
			zap.Error(err))
	}

	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.Mutation(ctx, r, audit.EventReviewDeleted, uid, id)
	w.WriteHeader(http.StatusNoContent)
}

// syncProjectRef mirrors the review onto its project's cached ref list
// with the freshly computed rubric total. Failures are logged, not
// surfaced: the reviews collection is the source of truth and the next
// write repairs the cache.
func (h *Handler) syncProjectRef(ctx context.Context, review models.Review) {
	err := h.Projects.SetReviewRef(ctx, review.ProjectID, models.ReviewRef{
		ReviewID: review.ID,
		ExpertID: review.ReviewerID,
		Score:    rubric.Total(review.Criteria),
	})
	if err != nil {
		h.Log.Warn("failed to sync cached review ref",
			zap.String("project_id", review.ProjectID.Hex()),
			zap.String("review_id", review.ID.Hex()),
			zap.Error(err))
	}
}
