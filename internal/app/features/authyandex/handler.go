// internal/app/features/authyandex/handler.go
package authyandex

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/yandex"

	"github.com/ChasovDS/konkursant-grants/internal/app/store/oauthstate"
	sessionstore "github.com/ChasovDS/konkursant-grants/internal/app/store/sessions"
	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/normalize"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/timeouts"
	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// Handler handles Yandex OAuth authentication.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Users      *userstore.Store
	Sessions   *sessionstore.Store // activity session tracking
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://konkursant.example/api/v1/auth/yandex/callback"

	// fetchUserInfo is swapped out in tests.
	fetchUserInfo yandexUserInfoFunc
}

// NewHandler creates a new Yandex OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	users *userstore.Store,
	sessStore *sessionstore.Store,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		SessionMgr:    sessionMgr,
		AuditLog:      audit,
		Users:         users,
		Sessions:      sessStore,
		StateStore:    stateStore,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		RedirectURL:   baseURL + "/api/v1/auth/yandex/callback",
		fetchUserInfo: fetchYandexUserInfo,
	}
}

// oauth2Config returns the Yandex OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"login:email", "login:info", "login:avatar"},
		Endpoint:     yandex.Endpoint,
	}
}

// IsConfigured returns true if Yandex OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/yandex and redirects the browser to the
// Yandex consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Yandex OAuth not configured")
		http.Redirect(w, r, "/login?error=yandex_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/yandex/callback: validates the state,
// exchanges the code, resolves or provisions the account, and signs the
// user in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Yandex OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=yandex_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Yandex user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}
	if info.DefaultEmail == "" {
		h.Log.Warn("Yandex account has no email", zap.String("yandex_id", info.ID))
		http.Redirect(w, r, "/login?error=no_email", http.StatusSeeOther)
		return
	}

	user, err := h.resolveUser(ctx, info)
	if err != nil {
		h.Log.Error("failed to resolve Yandex user", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if normalize.Status(user.Status) == "disabled" {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, user.ID, user.Email)
		http.Redirect(w, r, "/login?error=account_disabled", http.StatusSeeOther)
		return
	}

	if err := h.signIn(w, r, user); err != nil {
		h.Log.Error("sign-in failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.AuditLog.LoginOAuth(ctx, r, user.ID, "yandex", user.Email)

	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

// resolveUser maps a Yandex identity onto a portal account: by linked
// Yandex ID first, then by email with the link added, else a fresh
// account with the least-privileged role.
func (h *Handler) resolveUser(ctx context.Context, info *yandexUserInfo) (*models.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByYandexID(ctxTimeout, info.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	user, err = h.Users.GetByEmail(ctxTimeout, info.DefaultEmail)
	if err == nil {
		if linkErr := h.Users.LinkYandex(ctxTimeout, user.ID, info.ID); linkErr != nil {
			return nil, linkErr
		}
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	created, err := h.Users.Create(ctxTimeout, models.User{
		Email:     info.DefaultEmail,
		FullName:  info.fullName(),
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Avatar:    info.avatarURL(),
		External:  models.ExternalAccounts{Yandex: info.ID},
		Role:      roles.User,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// signIn issues the browser credentials for u and opens an activity
// session record.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u *models.User) error {
	su := &auth.SessionUser{
		ID:     u.ID.Hex(),
		Name:   u.FullName,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		return err
	}
	if _, err := h.Sessions.Create(r.Context(), u.ID, r.RemoteAddr, r.UserAgent()); err != nil {
		h.Log.Warn("failed to record activity session",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
	}
	return nil
}

// generateState returns a cryptographically random state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// yandexUserInfo represents user info returned from Yandex.
type yandexUserInfo struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DefaultEmail    string `json:"default_email"`
	RealName        string `json:"real_name"`
	DisplayName     string `json:"display_name"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DefaultAvatarID string `json:"default_avatar_id"`
	IsAvatarEmpty   bool   `json:"is_avatar_empty"`
}

func (u *yandexUserInfo) fullName() string {
	if u.RealName != "" {
		return u.RealName
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Login
}

func (u *yandexUserInfo) avatarURL() string {
	if u.IsAvatarEmpty || u.DefaultAvatarID == "" {
		return ""
	}
	return fmt.Sprintf("https://avatars.yandex.net/get-yapic/%s/islands-200", u.DefaultAvatarID)
}

type yandexUserInfoFunc func(ctx context.Context, token *oauth2.Token) (*yandexUserInfo, error)

// fetchYandexUserInfo retrieves user information from the Yandex login API.
func fetchYandexUserInfo(ctx context.Context, token *oauth2.Token) (*yandexUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://login.yandex.ru/info?format=json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info yandexUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}
