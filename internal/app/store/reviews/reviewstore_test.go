package reviewstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	reviewstore "github.com/ChasovDS/konkursant-grants/internal/app/store/reviews"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/rubric"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/testutil"
)

func setup(t *testing.T) *reviewstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return store
}

func newReview(projectID, reviewerID primitive.ObjectID, score int) models.Review {
	return models.Review{
		ProjectID:    projectID,
		ReviewerID:   reviewerID,
		ReviewerName: "Test Reviewer",
		Criteria:     testutil.UniformCriteria(score),
		Comment:      "solid work",
	}
}

func TestCreateAndGet(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	reviewerID := primitive.NewObjectID()

	created, err := store.Create(ctx, newReview(projectID, reviewerID, 7))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ProjectID != projectID || got.ReviewerID != reviewerID {
		t.Errorf("got = %+v", got)
	}
	if rubric.Total(got.Criteria) != 70 {
		t.Errorf("total = %d, want 70", rubric.Total(got.Criteria))
	}
}

func TestCreateSecondReviewSameExpert(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	reviewerID := primitive.NewObjectID()

	if _, err := store.Create(ctx, newReview(projectID, reviewerID, 5)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := store.Create(ctx, newReview(projectID, reviewerID, 9))
	if !errors.Is(err, reviewstore.ErrDuplicateReview) {
		t.Fatalf("second Create err = %v, want ErrDuplicateReview", err)
	}

	// The same expert may still review a different project, and a
	// different expert may review the same project.
	if _, err := store.Create(ctx, newReview(primitive.NewObjectID(), reviewerID, 9)); err != nil {
		t.Errorf("other project Create: %v", err)
	}
	if _, err := store.Create(ctx, newReview(projectID, primitive.NewObjectID(), 9)); err != nil {
		t.Errorf("other expert Create: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newReview(primitive.NewObjectID(), primitive.NewObjectID(), 3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := store.Update(ctx, created.ID, testutil.UniformCriteria(8), "improved after revision")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rubric.Total(updated.Criteria) != 80 {
		t.Errorf("total = %d, want 80", rubric.Total(updated.Criteria))
	}
	if updated.Comment != "improved after revision" {
		t.Errorf("comment = %q", updated.Comment)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Error("updated_at precedes created_at")
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), testutil.UniformCriteria(5), "x"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Update(missing) err = %v, want ErrNoDocuments", err)
	}
}

func TestGetMine(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	reviewerID := primitive.NewObjectID()

	if _, err := store.GetMine(ctx, projectID, reviewerID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetMine before create err = %v, want ErrNoDocuments", err)
	}

	created, err := store.Create(ctx, newReview(projectID, reviewerID, 6))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetMine(ctx, projectID, reviewerID)
	if err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetMine = %v, want %v", got.ID, created.ID)
	}
}

func TestListByProjectOrder(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	first, err := store.Create(ctx, newReview(projectID, primitive.NewObjectID(), 4))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := store.Create(ctx, newReview(projectID, primitive.NewObjectID(), 9))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reviews, err := store.ListByProject(ctx, projectID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d, want 2", len(reviews))
	}
	if reviews[0].ID != first.ID || reviews[1].ID != second.ID {
		t.Error("reviews not in submission order")
	}
}

func TestListByExpert(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expertID := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, newReview(primitive.NewObjectID(), expertID, 5)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	reviews, total, err := store.ListByExpert(ctx, expertID, paging.Page{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListByExpert: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(reviews) != 2 {
		t.Errorf("page = %d entries, want 2 with limit 2", len(reviews))
	}
}

func TestDeleteByProject(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	for i := 0; i < 2; i++ {
		if _, err := store.Create(ctx, newReview(projectID, primitive.NewObjectID(), 5)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := store.Create(ctx, newReview(primitive.NewObjectID(), primitive.NewObjectID(), 5)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := store.DeleteByProject(ctx, projectID)
	if err != nil {
		t.Fatalf("DeleteByProject: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
}
