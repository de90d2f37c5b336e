package userstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/paging"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
	"github.com/ChasovDS/konkursant-grants/internal/testutil"
)

func setup(t *testing.T) *userstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return store
}

func TestCreateNormalizesFields(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Email:    "  Ivan.Petrov@Example.COM ",
		FullName: "  Ivan   Petrov ",
		Role:     roles.User,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Email != "ivan.petrov@example.com" {
		t.Errorf("email = %q, want normalized lowercase", created.Email)
	}
	if created.FullName != "Ivan Petrov" {
		t.Errorf("full name = %q, want collapsed whitespace", created.FullName)
	}
	if created.FullNameCI != "ivan petrov" {
		t.Errorf("full_name_ci = %q", created.FullNameCI)
	}
	if created.Status != "active" {
		t.Errorf("status = %q, want active default", created.Status)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Email: "dup@test.com", FullName: "First", Role: roles.User}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same address with different case must still collide.
	_, err := store.Create(ctx, models.User{Email: "DUP@test.com", FullName: "Second", Role: roles.User})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Fatalf("Create duplicate: err = %v, want ErrDuplicateEmail", err)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Email: "x@test.com", FullName: "X", Role: "superuser"}); err == nil {
		t.Fatal("Create accepted an unknown role")
	}
}

func TestGetByEmailCaseInsensitive(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "case@test.com", FullName: "Case Test", Role: roles.Expert})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByEmail(ctx, "CASE@TEST.COM")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail returned %v, want %v", got.ID, created.ID)
	}

	if _, err := store.GetByEmail(ctx, "missing@test.com"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByEmail(missing) err = %v, want ErrNoDocuments", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "profile@test.com", FullName: "Before Name", Role: roles.User})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	city := "Moscow"
	name := "After Name"
	updated, err := store.UpdateProfile(ctx, created.ID, userstore.ProfileUpdate{
		FullName: &name,
		City:     &city,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if updated.FullName != "After Name" || updated.City != "Moscow" {
		t.Errorf("updated = %+v, want new name and city", updated)
	}
	if updated.Email != "profile@test.com" {
		t.Errorf("email changed to %q during profile update", updated.Email)
	}
	if updated.Role != roles.User {
		t.Errorf("role changed to %q during profile update", updated.Role)
	}
}

func TestSetRoleReturnsPrevious(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "role@test.com", FullName: "Role Test", Role: roles.User})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	prev, err := store.SetRole(ctx, created.ID, roles.Expert)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if prev != roles.User {
		t.Errorf("previous role = %q, want user", prev)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != roles.Expert {
		t.Errorf("role = %q, want expert", got.Role)
	}
}

func TestLinkAndGetByYandexID(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Email: "ya@test.com", FullName: "Yandex User", Role: roles.User})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.LinkYandex(ctx, created.ID, "yandex-123"); err != nil {
		t.Fatalf("LinkYandex: %v", err)
	}

	got, err := store.GetByYandexID(ctx, "yandex-123")
	if err != nil {
		t.Fatalf("GetByYandexID: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByYandexID returned %v, want %v", got.ID, created.ID)
	}
}

func TestListFiltersAndPages(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed := []struct {
		name  string
		email string
		role  roles.Role
	}{
		{"Anna Expert", "anna@test.com", roles.Expert},
		{"Boris Expert", "boris@test.com", roles.Expert},
		{"Anna Admin", "anna.admin@test.com", roles.Admin},
	}
	for _, u := range seed {
		if _, err := store.Create(ctx, models.User{Email: u.email, FullName: u.name, Role: u.role}); err != nil {
			t.Fatalf("Create %s: %v", u.email, err)
		}
	}

	users, total, err := store.List(ctx, userstore.ListFilter{Role: roles.Expert}, paging.Page{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("expert list = %d/%d, want 2/2", len(users), total)
	}

	users, total, err = store.List(ctx, userstore.ListFilter{Query: "anna"}, paging.Page{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("anna total = %d, want 2", total)
	}
	if len(users) != 1 {
		t.Errorf("anna page = %d entries, want 1 with limit 1", len(users))
	}
}

func TestFetcherSkipsDisabledUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	fetcher := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	active := fixtures.CreateExpert(ctx, "Active Expert", "active@test.com")
	disabled := fixtures.CreateDisabledUser(ctx, "Disabled User", "disabled@test.com")

	if su := fetcher.FetchUser(ctx, active.ID.Hex()); su == nil {
		t.Error("FetchUser returned nil for an active user")
	} else if su.Role != roles.Expert {
		t.Errorf("fetched role = %q, want expert", su.Role)
	}

	if su := fetcher.FetchUser(ctx, disabled.ID.Hex()); su != nil {
		t.Error("FetchUser returned a disabled user")
	}
	if su := fetcher.FetchUser(ctx, "garbage"); su != nil {
		t.Error("FetchUser returned a user for a malformed ID")
	}
}
