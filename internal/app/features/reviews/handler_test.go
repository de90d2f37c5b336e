// internal/app/features/reviews/handler_test.go
package reviews

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	reviewstore "github.com/ChasovDS/konkursant-grants/internal/app/store/reviews"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/rubric"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
	"github.com/ChasovDS/konkursant-grants/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	auditLogger := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})

	h := NewHandler(db, auditLogger, reviewstore.New(db), projectstore.New(db), zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func asUser(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
}

func reviewBody(score int, comment string) map[string]any {
	return map[string]any{
		"criteria_evaluation": testutil.UniformCriteria(score),
		"expert_comment":      comment,
	}
}

func (h *Handler) createVia(t *testing.T, projectID string, u testutil.TestUser, body map[string]any) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodPost, "/projects/"+projectID+"/reviews", body),
		"project_id", projectID), u)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)
	return rec
}

func TestCreateReview(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	expert := f.CreateExpert(ctx, "Expert", "expert@example.com")
	project := f.CreateProject(ctx, "Scored", author.ID)

	rec := h.createVia(t, project.ID.Hex(), asUser(expert), reviewBody(7, "solid work"))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Review
	rec.DecodeJSON(t, &got)
	if got.ReviewerID != expert.ID {
		t.Fatalf("reviewer = %s, want %s", got.ReviewerID.Hex(), expert.ID.Hex())
	}

	// The project's cached ref list carries the rubric total.
	fresh, err := h.Projects.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(fresh.Reviews) != 1 || fresh.Reviews[0].Score != 7*rubric.NumCriteria {
		t.Fatalf("cached refs = %v, want one ref with score %d", fresh.Reviews, 7*rubric.NumCriteria)
	}
}

func TestCreateReviewValidationBlocksStore(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	project := f.CreateProject(ctx, "Unscored", author.ID)

	rec := h.createVia(t, project.ID.Hex(), testutil.ExpertUser(), reviewBody(11, "over the top"))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	// Missing criterion.
	partial := testutil.UniformCriteria(5)
	delete(partial, rubric.Criteria[0])
	rec = h.createVia(t, project.ID.Hex(), testutil.ExpertUser(), map[string]any{
		"criteria_evaluation": partial,
		"expert_comment":      "incomplete",
	})
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, rubric.Criteria[0])

	stored, err := h.Reviews.ListByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("invalid review reached the store: %d documents", len(stored))
	}
}

func TestCreateReviewDuplicate(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	expert := f.CreateExpert(ctx, "Expert", "expert@example.com")
	project := f.CreateProject(ctx, "Once", author.ID)

	h.createVia(t, project.ID.Hex(), asUser(expert), reviewBody(6, "first")).
		AssertStatus(t, http.StatusCreated)
	h.createVia(t, project.ID.Hex(), asUser(expert), reviewBody(8, "second")).
		AssertStatus(t, http.StatusConflict)
}

func TestCreateReviewRequiresExpert(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	project := f.CreateProject(ctx, "Guarded", author.ID)

	h.createVia(t, project.ID.Hex(), testutil.RegularUser(), reviewBody(5, "not mine to score")).
		AssertStatus(t, http.StatusForbidden)
	// Admins moderate reviews but do not author them.
	h.createVia(t, project.ID.Hex(), testutil.AdminUser(), reviewBody(5, "still no")).
		AssertStatus(t, http.StatusForbidden)
}

func TestCreateReviewProjectNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	h.createVia(t, "65f000000000000000000000", testutil.ExpertUser(), reviewBody(5, "ghost")).
		AssertStatus(t, http.StatusNotFound)
}

func TestReplaceReviewRecomputesScore(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	expert := f.CreateExpert(ctx, "Expert", "expert@example.com")
	project := f.CreateProject(ctx, "Rescored", author.ID)

	var created models.Review
	h.createVia(t, project.ID.Hex(), asUser(expert), reviewBody(5, "first pass")).
		DecodeJSON(t, &created)

	replace := func(u testutil.TestUser, body map[string]any) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, http.MethodPut, "/reviews/"+created.ID.Hex(), body),
			"review_id", created.ID.Hex()), u)
		rec := testutil.NewRecorder()
		h.HandleReplace(rec, req)
		return rec
	}

	// A different expert cannot touch it.
	replace(testutil.ExpertUser(), reviewBody(1, "sabotage")).
		AssertStatus(t, http.StatusForbidden)

	replace(asUser(expert), reviewBody(9, "much improved")).
		AssertStatus(t, http.StatusOK)

	fresh, err := h.Projects.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(fresh.Reviews) != 1 || fresh.Reviews[0].Score != 9*rubric.NumCriteria {
		t.Fatalf("cached refs = %v, want one ref with score %d", fresh.Reviews, 9*rubric.NumCriteria)
	}
}

func TestDeleteReview(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	expert := f.CreateExpert(ctx, "Expert", "expert@example.com")
	project := f.CreateProject(ctx, "Retracted", author.ID)

	var created models.Review
	h.createVia(t, project.ID.Hex(), asUser(expert), reviewBody(4, "hasty")).
		DecodeJSON(t, &created)

	del := func(u testutil.TestUser) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, http.MethodDelete, "/reviews/"+created.ID.Hex(), nil),
			"review_id", created.ID.Hex()), u)
		rec := testutil.NewRecorder()
		h.HandleDelete(rec, req)
		return rec
	}

	del(testutil.ExpertUser()).AssertStatus(t, http.StatusForbidden)
	del(asUser(expert)).AssertStatus(t, http.StatusNoContent)

	remaining, err := h.Reviews.ListByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("review survived delete: %d documents", len(remaining))
	}
	fresh, err := h.Projects.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(fresh.Reviews) != 0 {
		t.Fatalf("cached ref survived delete: %v", fresh.Reviews)
	}
}

func TestServeMine(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	expert := f.CreateExpert(ctx, "Expert", "expert@example.com")
	project := f.CreateProject(ctx, "Mine", author.ID)

	mine := func(u testutil.TestUser) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, http.MethodGet,
				"/reviews/project/"+project.ID.Hex()+"/mine", nil),
			"project_id", project.ID.Hex()), u)
		rec := testutil.NewRecorder()
		h.ServeMine(rec, req)
		return rec
	}

	// Before reviewing: 200 with a null body, not a 404.
	rec := mine(asUser(expert))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "null")

	h.createVia(t, project.ID.Hex(), asUser(expert), reviewBody(6, "mine now")).
		AssertStatus(t, http.StatusCreated)

	rec = mine(asUser(expert))
	rec.AssertStatus(t, http.StatusOK)
	var got models.Review
	rec.DecodeJSON(t, &got)
	if got.ReviewerID != expert.ID {
		t.Fatalf("reviewer = %s, want %s", got.ReviewerID.Hex(), expert.ID.Hex())
	}
}

func TestServeByProjectPolicy(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	expert := f.CreateExpert(ctx, "Expert", "expert@example.com")
	project := f.CreateProject(ctx, "Reviewed", author.ID)
	f.CreateReview(ctx, project.ID, expert.ID, 7)

	byProject := func(u testutil.TestUser, projectID string) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, http.MethodGet, "/reviews/project/"+projectID, nil),
			"project_id", projectID), u)
		rec := testutil.NewRecorder()
		h.ServeByProject(rec, req)
		return rec
	}

	// The author and the review tier may read; a stranger may not.
	byProject(asUser(author), project.ID.Hex()).AssertStatus(t, http.StatusOK)
	byProject(asUser(expert), project.ID.Hex()).AssertStatus(t, http.StatusOK)
	byProject(testutil.RegularUser(), project.ID.Hex()).AssertStatus(t, http.StatusForbidden)
	byProject(asUser(author), "65f000000000000000000000").AssertStatus(t, http.StatusNotFound)
}

func TestServeByExpert(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := f.CreateUser(ctx, "Author", "author@example.com", roles.User)
	expert := f.CreateExpert(ctx, "Expert", "expert@example.com")
	p1 := f.CreateProject(ctx, "First", author.ID)
	p2 := f.CreateProject(ctx, "Second", author.ID)
	f.CreateReview(ctx, p1.ID, expert.ID, 6)
	f.CreateReview(ctx, p2.ID, expert.ID, 8)

	req := testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodGet, "/reviews/expert/"+expert.ID.Hex(), nil),
		"expert_id", expert.ID.Hex()), asUser(expert))
	rec := testutil.NewRecorder()
	h.ServeByExpert(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var got struct {
		Total int64 `json:"total"`
	}
	rec.DecodeJSON(t, &got)
	if got.Total != 2 {
		t.Fatalf("total = %d, want 2", got.Total)
	}

	// Applicants have no business browsing an expert's worksheet.
	req = testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodGet, "/reviews/expert/"+expert.ID.Hex(), nil),
		"expert_id", expert.ID.Hex()), testutil.RegularUser())
	rec = testutil.NewRecorder()
	h.ServeByExpert(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}
