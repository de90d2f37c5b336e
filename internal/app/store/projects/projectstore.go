package projectstore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/normalize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// EnsureIndexes creates the indexes project listings rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_projects_author"),
		},
		{
			Keys:    bson.D{{Key: "title_ci", Value: 1}},
			Options: options.Index().SetName("idx_projects_title_ci"),
		},
		{
			Keys:    bson.D{{Key: "event_ids", Value: 1}},
			Options: options.Index().SetName("idx_projects_events"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a project by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project after normalizing its title.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	p.ID = primitive.NewObjectID()
	p.Title = normalize.Name(p.Title)
	p.TitleCI = normalize.Fold(p.Title)
	p.Reviews = nil

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// ContentUpdate holds the author-editable project fields. The cached
// reviews array and ownership fields are not reachable through it.
type ContentUpdate struct {
	Title              string
	Region             string
	Contacts           models.ContactInfo
	BriefInfo          string
	ProblemDescription string
	TargetGroups       string
	MainGoal           string
	Tasks              []string
	Geography          []string
	Team               []models.TeamMember
	Budget             []models.BudgetItem
}

// UpdateContent replaces a project's content fields and returns the
// updated document.
func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, upd ContentUpdate) (*models.Project, error) {
	title := normalize.Name(upd.Title)
	set := bson.M{
		"title":               title,
		"title_ci":            normalize.Fold(title),
		"region":              upd.Region,
		"contacts":            upd.Contacts,
		"brief_info":          upd.BriefInfo,
		"problem_description": upd.ProblemDescription,
		"target_groups":       upd.TargetGroups,
		"main_goal":           upd.MainGoal,
		"tasks":               upd.Tasks,
		"geography":           upd.Geography,
		"team":                upd.Team,
		"budget":              upd.Budget,
		"updated_at":          time.Now().UTC(),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a project. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListFilter narrows the project listing.
type ListFilter struct {
	AuthorID *primitive.ObjectID // only this author's projects
	EventID  *primitive.ObjectID // only projects attached to this event
	Query    string              // case-insensitive title prefix
}

// List returns a page of project summaries plus the total match count,
// newest first.
func (s *Store) List(ctx context.Context, filter ListFilter, page paging.Page) ([]models.ProjectSummary, int64, error) {
	query := bson.M{}
	if filter.AuthorID != nil {
		query["author_id"] = *filter.AuthorID
	}
	if filter.EventID != nil {
		query["event_ids"] = *filter.EventID
	}
	if filter.Query != "" {
		query["title_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(normalize.Fold(filter.Query))}
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit64()).
		SetProjection(bson.M{
			"_id":         1,
			"title":       1,
			"author_id":   1,
			"author_name": 1,
			"region":      1,
			"reviews":     1,
			"created_at":  1,
		})

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var projects []models.ProjectSummary
	if err := cur.All(ctx, &projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// SetReviewRef upserts the cached review pointer for one expert on the
// project. The pointer is replaced when the expert rewrites their
// review, so the array holds at most one entry per expert.
func (s *Store) SetReviewRef(ctx context.Context, projectID primitive.ObjectID, ref models.ReviewRef) error {
	// Pull any stale entry for this expert first, then push the fresh one.
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$pull": bson.M{"reviews": bson.M{"expert_id": ref.ExpertID}}},
	)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{
			"$push": bson.M{"reviews": ref},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveReviewRef drops the cached review pointer when a review is
// deleted.
func (s *Store) RemoveReviewRef(ctx context.Context, projectID, reviewID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{
			"$pull": bson.M{"reviews": bson.M{"review_id": reviewID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// AttachEvent records the project's participation in an event.
func (s *Store) AttachEvent(ctx context.Context, projectID, eventID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{
			"$addToSet": bson.M{"event_ids": eventID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DetachEvent removes the project's participation in an event.
func (s *Store) DetachEvent(ctx context.Context, projectID, eventID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{
			"$pull": bson.M{"event_ids": eventID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}
