// internal/app/features/projects/list.go
package projects

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/gates"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
)

// ServeList handles GET /projects. Review-tier users see every
// project; everyone else is pinned to their own regardless of the
// ?mine= parameter.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	filter := projectstore.ListFilter{Query: r.URL.Query().Get("query")}
	if r.URL.Query().Get("mine") == "true" || !res.Role.IsReviewTier() {
		uid := res.UserID
		filter.AuthorID = &uid
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, total, err := h.Projects.List(ctx, filter, page)
	if err != nil {
		h.Log.Error("project list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.NewPaged(items, total, page.Page, page.Limit))
}
