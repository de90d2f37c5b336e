package eventstore

import (
	"context"
	"errors"
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

// Roster names the membership arrays an event keeps. Assignment
// endpoints address them by this value.
type Roster string

const (
	RosterManagers     Roster = "managers"
	RosterExperts      Roster = "experts"
	RosterSpectators   Roster = "spectators"
	RosterParticipants Roster = "participants"
)

// ParseRoster maps an URL segment onto a roster field. Segments come in
// singular ("manager") while the stored arrays are plural.
func ParseRoster(s string) (Roster, bool) {
	switch s {
	case "manager", "managers":
		return RosterManagers, true
	case "expert", "experts":
		return RosterExperts, true
	case "spectator", "spectators":
		return RosterSpectators, true
	case "participant", "participants":
		return RosterParticipants, true
	}
	return "", false
}

// Validation sentinels; features map them to 422 responses.
var (
	ErrBadStatus = errors.New(`event status must be "scheduled"|"in_progress"|"completed"`)
	ErrBadDates  = errors.New("event end date must not precede its start date")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// EnsureIndexes creates the indexes event listings rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title_ci", Value: 1}},
			Options: options.Index().SetName("idx_events_title_ci"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "start_date", Value: -1}},
			Options: options.Index().SetName("idx_events_status"),
		},
		{
			Keys:    bson.D{{Key: "creator.user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_events_creator"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads an event by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = primitive.NewObjectID()
	e.Title = normalize.Name(e.Title)
	e.TitleCI = normalize.Fold(e.Title)
	if e.Status == "" {
		e.Status = models.EventScheduled
	}
	if !models.ValidEventStatus(e.Status) {
		return models.Event{}, ErrBadStatus
	}
	if e.EndDate.Before(e.StartDate) {
		return models.Event{}, ErrBadDates
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// ContentUpdate holds the manager-editable event fields.
type ContentUpdate struct {
	Title       string
	Type        string
	Format      string
	Status      string
	Tags        []string
	Logo        string
	Location    string
	Description string
	Contacts    string
	StartDate   time.Time
	EndDate     time.Time
}

// UpdateContent replaces an event's content fields and returns the
// updated document. The rosters are managed by the assignment methods.
func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, upd ContentUpdate) (*models.Event, error) {
	if !models.ValidEventStatus(upd.Status) {
		return nil, ErrBadStatus
	}
	if upd.EndDate.Before(upd.StartDate) {
		return nil, ErrBadDates
	}

	title := normalize.Name(upd.Title)
	set := bson.M{
		"title":        title,
		"title_ci":     normalize.Fold(title),
		"event_type":   upd.Type,
		"format":       upd.Format,
		"status":       upd.Status,
		"tags":         upd.Tags,
		"logo":         upd.Logo,
		"location":     upd.Location,
		"description":  upd.Description,
		"contact_info": upd.Contacts,
		"start_date":   upd.StartDate,
		"end_date":     upd.EndDate,
		"updated_at":   time.Now().UTC(),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Event
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes an event. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListFilter narrows the event listing.
type ListFilter struct {
	CreatorID *primitive.ObjectID
	Status    string
	Query     string // case-insensitive title prefix
}

// List returns a page of event summaries plus the total match count,
// latest start date first.
func (s *Store) List(ctx context.Context, filter ListFilter, page paging.Page) ([]models.EventSummary, int64, error) {
	query := bson.M{}
	if filter.CreatorID != nil {
		query["creator.user_id"] = *filter.CreatorID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Query != "" {
		query["title_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(normalize.Fold(filter.Query))}
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit64()).
		SetProjection(bson.M{
			"_id":        1,
			"title":      1,
			"event_type": 1,
			"format":     1,
			"status":     1,
			"location":   1,
			"start_date": 1,
			"end_date":   1,
		})

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var events []models.EventSummary
	if err := cur.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Assign adds a user to one of the event's rosters. Adding twice is a
// no-op. Returns mongo.ErrNoDocuments when the event does not exist.
func (s *Store) Assign(ctx context.Context, eventID primitive.ObjectID, roster Roster, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{
			"$addToSet": bson.M{string(roster): userID},
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

// Unassign removes a user from one of the event's rosters.
func (s *Store) Unassign(ctx context.Context, eventID primitive.ObjectID, roster Roster, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{
			"$pull": bson.M{string(roster): userID},
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

// AttachProject records a project in the event's project list.
func (s *Store) AttachProject(ctx context.Context, eventID, projectID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{
			"$addToSet": bson.M{"project_ids": projectID},
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

// DetachProject removes a project from the event's project list.
func (s *Store) DetachProject(ctx context.Context, eventID, projectID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{
			"$pull": bson.M{"project_ids": projectID},
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

// IsExpertFor reports whether userID sits on the event's expert roster.
func (s *Store) IsExpertFor(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": eventID, "experts": userID}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}
