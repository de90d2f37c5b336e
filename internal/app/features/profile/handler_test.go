// internal/app/features/profile/handler_test.go
package profile

import (
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
	"github.com/ChasovDS/konkursant-grants/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()

	db := testutil.SetupTestDB(t)

	sm, err := auth.NewSessionManager(
		strings.Repeat("s", 32), strings.Repeat("j", 32), "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	users := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := users.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	auditLogger := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})

	return NewHandler(db, sm, auditLogger, users, zap.NewNop()), testutil.NewFixtures(t, db)
}

func asUser(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
}

func TestServeMeAbbreviated(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/users/me?abbreviated=true", testutil.ExpertUser())
	rec := testutil.NewRecorder()
	h.ServeMe(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Test Expert")
	rec.AssertContains(t, `"role_name":"expert"`)
}

func TestServeMeFullProfile(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Full Profile", "full@example.com", roles.User)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/users/me", asUser(user))
	rec := testutil.NewRecorder()
	h.ServeMe(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "full@example.com")
}

func TestServeMeUnauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewJSONRequest(t, http.MethodGet, "/users/me", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestUpdateMe(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Before Update", "upd@example.com", roles.User)

	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/users/me", map[string]any{
		"full_name": "  After Update  ",
		"city":      "Kazan",
		"squad_info": map[string]string{
			"direction": "construction",
			"squad":     "Vostok",
		},
	}), asUser(user))
	rec := testutil.NewRecorder()
	h.HandleUpdateMe(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "After Update")
	rec.AssertContains(t, "Kazan")
	rec.AssertContains(t, "Vostok")

	// The snapshot cookie is refreshed with the new name.
	var sawSnapshot bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "userData" {
			sawSnapshot = true
		}
	}
	if !sawSnapshot {
		t.Fatal("expected refreshed userData cookie after profile update")
	}
}

func TestUpdateMeRejectsEmptyName(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Keep Name", "keep@example.com", roles.User)

	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/users/me",
		map[string]any{"full_name": "   "}), asUser(user))
	rec := testutil.NewRecorder()
	h.HandleUpdateMe(rec, req)

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "full_name")
}

func TestUpdateMeCannotTouchRole(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Sneaky", "sneak@example.com", roles.User)

	// Unknown fields are rejected outright, so role escalation through
	// the profile endpoint is a 400, not a silent drop.
	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/users/me",
		map[string]any{"role_name": "admin"}), asUser(user))
	rec := testutil.NewRecorder()
	h.HandleUpdateMe(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestListUsers(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateUser(ctx, "Alpha One", "alpha@example.com", roles.User)
	f.CreateUser(ctx, "Alpha Two", "alpha2@example.com", roles.Expert)
	f.CreateUser(ctx, "Beta Three", "beta@example.com", roles.User)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/users?q=alpha", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var got struct {
		Items []models.UserSummary `json:"items"`
		Total int64                `json:"total"`
	}
	rec.DecodeJSON(t, &got)
	if got.Total != 2 {
		t.Fatalf("total = %d, want 2", got.Total)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/users?role=expert", testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.DecodeJSON(t, &got)
	if got.Total != 1 || got.Items[0].Email != "alpha2@example.com" {
		t.Fatalf("role filter returned %+v", got)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/users?role=superhero", testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestSetRole(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Promote Me", "promote@example.com", roles.User)

	req := testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodPatch, "/users/"+user.ID.Hex()+"/role",
			map[string]string{"role_name": "expert"}),
		"user_id", user.ID.Hex()), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleSetRole(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role_name":"expert"`)

	updated, err := h.Users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Role != roles.Expert {
		t.Fatalf("role = %q, want expert", updated.Role)
	}
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Stay Put", "stay@example.com", roles.User)

	req := testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodPatch, "/users/"+user.ID.Hex()+"/role",
			map[string]string{"role_name": "root"}),
		"user_id", user.ID.Hex()), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleSetRole(rec, req)

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "unknown role")
}

func TestSetRoleMissingUser(t *testing.T) {
	h, _ := newTestHandler(t)

	missing := "65f000000000000000000000"
	req := testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodPatch, "/users/"+missing+"/role",
			map[string]string{"role_name": "expert"}),
		"user_id", missing), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleSetRole(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)

	req = testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodPatch, "/users/nope/role",
			map[string]string{"role_name": "expert"}),
		"user_id", "nope"), testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.HandleSetRole(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeUserProfile(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Looked Up", "lookup@example.com", roles.User)

	get := func(id string) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, http.MethodGet, "/users/"+id+"/profile", nil),
			"user_id", id), testutil.ModeratorUser())
		rec := testutil.NewRecorder()
		h.ServeUser(rec, req)
		return rec
	}

	rec := get(user.ID.Hex())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "lookup@example.com")

	get("65f000000000000000000000").AssertStatus(t, http.StatusNotFound)
	get("nope").AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateUserProfile(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Managed", "managed@example.com", roles.User)

	req := testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodPut, "/users/"+user.ID.Hex()+"/profile",
			map[string]any{"full_name": "Corrected Name", "city": "Omsk"}),
		"user_id", user.ID.Hex()), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.HandleUpdateUser(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Corrected Name")

	updated, err := h.Users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.City != "Omsk" {
		t.Fatalf("city = %q, want Omsk", updated.City)
	}

	missing := "65f000000000000000000000"
	req = testutil.WithUser(testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, http.MethodPut, "/users/"+missing+"/profile",
			map[string]any{"city": "Omsk"}),
		"user_id", missing), testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.HandleUpdateUser(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestDeleteUserProfile(t *testing.T) {
	h, f := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := f.CreateUser(ctx, "Removed", "removed@example.com", roles.User)

	del := func(id string) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.WithChiURLParam(
			testutil.NewJSONRequest(t, http.MethodDelete, "/users/"+id+"/profile", nil),
			"user_id", id), testutil.AdminUser())
		rec := testutil.NewRecorder()
		h.HandleDeleteUser(rec, req)
		return rec
	}

	del(user.ID.Hex()).AssertStatus(t, http.StatusNoContent)

	if _, err := h.Users.GetByID(ctx, user.ID); err == nil {
		t.Fatal("user still present after delete")
	}

	// Second delete of the same id is a 404, not a silent success.
	del(user.ID.Hex()).AssertStatus(t, http.StatusNotFound)
}
