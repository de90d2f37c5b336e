package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/normalize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/rubric"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name, email, and role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, role roles.Role) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Email:      normalize.Email(email),
		EmailCI:    normalize.Email(email),
		FullName:   fullName,
		FullNameCI: normalize.Fold(fullName),
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateExpert creates a test user with the expert role.
func (f *Fixtures) CreateExpert(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, roles.Expert)
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Email:      normalize.Email(email),
		EmailCI:    normalize.Email(email),
		FullName:   fullName,
		FullNameCI: normalize.Fold(fullName),
		Role:       roles.User,
		Status:     "disabled",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}
	return user
}

// CreateProject creates a test project owned by authorID.
func (f *Fixtures) CreateProject(ctx context.Context, title string, authorID primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	project := models.Project{
		ID:         primitive.NewObjectID(),
		Title:      title,
		TitleCI:    normalize.Fold(title),
		AuthorID:   authorID,
		AuthorName: "Test Author",
		Region:     "Test Region",
		BriefInfo:  "Test project description",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("projects").InsertOne(ctx, project); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateEvent creates a scheduled test event owned by creatorID.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, creatorID primitive.ObjectID) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	event := models.Event{
		ID:      primitive.NewObjectID(),
		Title:   title,
		TitleCI: normalize.Fold(title),
		Type:    "grant_competition",
		Format:  "online",
		Status:  models.EventScheduled,
		Creator: models.EventCreator{
			UserID:   creatorID,
			FullName: "Test Creator",
		},
		StartDate: now.Add(24 * time.Hour),
		EndDate:   now.Add(48 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, event); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return event
}

// UniformCriteria returns a full criteria map with every rubric
// criterion set to score.
func UniformCriteria(score int) map[string]int {
	criteria := make(map[string]int, len(rubric.Criteria))
	for _, key := range rubric.Criteria {
		criteria[key] = score
	}
	return criteria
}

// CreateReview creates a test review of projectID by reviewerID with a
// uniform criteria map.
func (f *Fixtures) CreateReview(ctx context.Context, projectID, reviewerID primitive.ObjectID, score int) models.Review {
	f.t.Helper()

	now := time.Now().UTC()
	review := models.Review{
		ID:           primitive.NewObjectID(),
		ProjectID:    projectID,
		ReviewerID:   reviewerID,
		ReviewerName: "Test Reviewer",
		Criteria:     UniformCriteria(score),
		Comment:      "Test review comment",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("reviews").InsertOne(ctx, review); err != nil {
		f.t.Fatalf("failed to create test review: %v", err)
	}
	return review
}
