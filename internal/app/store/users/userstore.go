package userstore

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
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"moderator"|"event_manager"|"expert"|"user"`)
)

// EnsureIndexes creates the indexes the user lookups rely on. The
// unique email_ci index is what makes registration race-safe.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_email_ci"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "external_accounts.yandex", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_users_yandex"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByYandexID looks up a user by their linked Yandex account ID.
func (s *Store) GetByYandexID(ctx context.Context, yandexID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"external_accounts.yandex": yandexID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = normalize.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.EmailCI = u.Email
	u.Status = normalize.Status(u.Status)

	if !roles.IsValid(u.Role.String()) {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the profile fields an account owner may change.
// Nil pointers mean "leave as is".
type ProfileUpdate struct {
	FullName   *string
	FirstName  *string
	LastName   *string
	MiddleName *string
	Phone      *string
	City       *string
	Gender     *string
	Birthday   *string
	Avatar     *string
	Squad      *models.SquadInfo
}

// UpdateProfile applies a partial profile update to the user's own
// record. Role, email, and status are deliberately not reachable here.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		set["full_name"] = name
		set["full_name_ci"] = normalize.Fold(name)
	}
	if upd.FirstName != nil {
		set["first_name"] = normalize.Name(*upd.FirstName)
	}
	if upd.LastName != nil {
		set["last_name"] = normalize.Name(*upd.LastName)
	}
	if upd.MiddleName != nil {
		set["middle_name"] = normalize.Name(*upd.MiddleName)
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.City != nil {
		set["city"] = *upd.City
	}
	if upd.Gender != nil {
		set["gender"] = *upd.Gender
	}
	if upd.Birthday != nil {
		set["birthday"] = *upd.Birthday
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.Squad != nil {
		set["squad_info"] = *upd.Squad
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRole changes a user's role. Only the admin feature calls this.
// Returns the previous role for the audit trail.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role roles.Role) (roles.Role, error) {
	if !roles.IsValid(role.String()) {
		return "", errBadRole
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var prev models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&prev)
	if err != nil {
		return "", err
	}
	return prev.Role, nil
}

// Delete removes a user document. Returns the number of documents
// removed so callers can answer 404 for an unknown id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// LinkYandex records an external Yandex account ID on the user.
func (s *Store) LinkYandex(ctx context.Context, id primitive.ObjectID, yandexID string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"external_accounts.yandex": yandexID,
			"updated_at":               time.Now().UTC(),
		}},
	)
	return err
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Query string     // matches name or email, case-insensitive prefix
	Role  roles.Role // empty means any
}

// List returns a page of user summaries plus the total match count.
func (s *Store) List(ctx context.Context, filter ListFilter, page paging.Page) ([]models.UserSummary, int64, error) {
	query := bson.M{}
	if filter.Query != "" {
		q := normalize.Fold(filter.Query)
		query["$or"] = []bson.M{
			{"full_name_ci": bson.M{"$regex": "^" + regexp.QuoteMeta(q)}},
			{"email_ci": bson.M{"$regex": "^" + regexp.QuoteMeta(q)}},
		}
	}
	if filter.Role != "" {
		query["role"] = filter.Role
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit64()).
		SetProjection(bson.M{
			"_id":       1,
			"full_name": 1,
			"email":     1,
			"role":      1,
			"avatar":    1,
		})

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []models.UserSummary
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email_ci": normalize.Email(email),
		"_id":      bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}
