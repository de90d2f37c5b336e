package projectstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/testutil"
)

func setup(t *testing.T) *projectstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	authorID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Project{
		Title:    "  Youth   Library  ",
		AuthorID: authorID,
		Region:   "Tomsk",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Title != "Youth Library" {
		t.Errorf("title = %q, want collapsed whitespace", created.Title)
	}
	if created.TitleCI != "youth library" {
		t.Errorf("title_ci = %q", created.TitleCI)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AuthorID != authorID || got.Region != "Tomsk" {
		t.Errorf("got = %+v", got)
	}
}

func TestUpdateContentPreservesReviews(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Project{Title: "Before", AuthorID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ref := models.ReviewRef{
		ReviewID: primitive.NewObjectID(),
		ExpertID: primitive.NewObjectID(),
		Score:    77,
	}
	if err := store.SetReviewRef(ctx, created.ID, ref); err != nil {
		t.Fatalf("SetReviewRef: %v", err)
	}

	updated, err := store.UpdateContent(ctx, created.ID, projectstore.ContentUpdate{
		Title:     "After",
		MainGoal:  "New goal",
		Geography: []string{"Tomsk"},
	})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	if updated.Title != "After" || updated.MainGoal != "New goal" {
		t.Errorf("updated = %+v", updated)
	}
	if len(updated.Reviews) != 1 || updated.Reviews[0].Score != 77 {
		t.Errorf("reviews = %+v, want cached ref preserved across content update", updated.Reviews)
	}
}

func TestSetReviewRefReplacesPerExpert(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Project{Title: "Scored", AuthorID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	expertID := primitive.NewObjectID()
	reviewID := primitive.NewObjectID()

	if err := store.SetReviewRef(ctx, created.ID, models.ReviewRef{ReviewID: reviewID, ExpertID: expertID, Score: 50}); err != nil {
		t.Fatalf("SetReviewRef: %v", err)
	}
	// Same expert rewrites their review: the ref must be replaced, not duplicated.
	if err := store.SetReviewRef(ctx, created.ID, models.ReviewRef{ReviewID: reviewID, ExpertID: expertID, Score: 80}); err != nil {
		t.Fatalf("SetReviewRef: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Reviews) != 1 {
		t.Fatalf("reviews = %d entries, want 1", len(got.Reviews))
	}
	if got.Reviews[0].Score != 80 {
		t.Errorf("cached score = %d, want 80", got.Reviews[0].Score)
	}

	if err := store.RemoveReviewRef(ctx, created.ID, reviewID); err != nil {
		t.Fatalf("RemoveReviewRef: %v", err)
	}
	got, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Reviews) != 0 {
		t.Errorf("reviews = %d entries after removal, want 0", len(got.Reviews))
	}
}

func TestSetReviewRefMissingProject(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.SetReviewRef(ctx, primitive.NewObjectID(), models.ReviewRef{
		ReviewID: primitive.NewObjectID(),
		ExpertID: primitive.NewObjectID(),
		Score:    10,
	})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("err = %v, want ErrNoDocuments for missing project", err)
	}
}

func TestListByAuthorAndQuery(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := primitive.NewObjectID()
	other := primitive.NewObjectID()

	for _, p := range []models.Project{
		{Title: "Garden One", AuthorID: mine},
		{Title: "Garden Two", AuthorID: mine},
		{Title: "Library", AuthorID: other},
	} {
		if _, err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	projects, total, err := store.List(ctx, projectstore.ListFilter{AuthorID: &mine}, paging.Page{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(projects) != 2 {
		t.Errorf("author list = %d/%d, want 2/2", len(projects), total)
	}

	projects, total, err = store.List(ctx, projectstore.ListFilter{Query: "garden"}, paging.Page{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("query total = %d, want 2", total)
	}
	if len(projects) != 1 {
		t.Errorf("query page = %d entries, want 1 with limit 1", len(projects))
	}
}

func TestAttachDetachEvent(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Project{Title: "Attached", AuthorID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	eventID := primitive.NewObjectID()

	if err := store.AttachEvent(ctx, created.ID, eventID); err != nil {
		t.Fatalf("AttachEvent: %v", err)
	}
	// Attaching twice must not duplicate.
	if err := store.AttachEvent(ctx, created.ID, eventID); err != nil {
		t.Fatalf("AttachEvent: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.EventIDs) != 1 {
		t.Fatalf("event_ids = %d entries, want 1", len(got.EventIDs))
	}

	projects, total, err := store.List(ctx, projectstore.ListFilter{EventID: &eventID}, paging.Page{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(projects) != 1 {
		t.Errorf("event list = %d/%d, want 1/1", len(projects), total)
	}

	if err := store.DetachEvent(ctx, created.ID, eventID); err != nil {
		t.Fatalf("DetachEvent: %v", err)
	}
	got, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.EventIDs) != 0 {
		t.Errorf("event_ids = %d entries after detach, want 0", len(got.EventIDs))
	}
}

func TestDelete(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Project{Title: "Doomed", AuthorID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	n, err = store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 0 {
		t.Errorf("second delete = %d, want 0", n)
	}
}
