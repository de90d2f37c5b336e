package reviewstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

// ErrDuplicateReview is returned when an expert already has a review on
// the project. One review per expert per project is enforced by a
// unique index, so the rule holds under concurrent submissions.
var ErrDuplicateReview = errors.New("this expert has already reviewed the project")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reviews")}
}

// EnsureIndexes creates the unique (project, reviewer) index plus the
// lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "reviewer_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_reviews_project_reviewer"),
		},
		{
			Keys:    bson.D{{Key: "reviewer_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_reviews_reviewer"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a review by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new review. The caller validates the criteria map
// before it gets here; the store only guards the one-per-expert rule.
func (s *Store) Create(ctx context.Context, r models.Review) (models.Review, error) {
	r.ID = primitive.NewObjectID()

	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Review{}, ErrDuplicateReview
		}
		return models.Review{}, err
	}
	return r, nil
}

// Update replaces a review's criteria scores and comment, returning the
// updated document.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, criteria map[string]int, comment string) (*models.Review, error) {
	set := bson.M{
		"criteria_evaluation": criteria,
		"expert_comment":      comment,
		"updated_at":          time.Now().UTC(),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Review
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes a review. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByProject returns every review on the project, oldest first so
// the rubric table has a stable row order.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetMine returns the caller's own review on the project, or
// mongo.ErrNoDocuments when they have not reviewed it yet.
func (s *Store) GetMine(ctx context.Context, projectID, reviewerID primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	err := s.c.FindOne(ctx, bson.M{
		"project_id":  projectID,
		"reviewer_id": reviewerID,
	}).Decode(&r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListByExpert returns a page of the expert's reviews across all
// projects, newest first, plus the total count.
func (s *Store) ListByExpert(ctx context.Context, expertID primitive.ObjectID, page paging.Page) ([]models.Review, int64, error) {
	query := bson.M{"reviewer_id": expertID}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit64())

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// DeleteByProject removes every review on a project. Called when the
// project itself is deleted.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
