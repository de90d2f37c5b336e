package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/ChasovDS/konkursant-grants/internal/app/system/httpjson"
	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Cookie names & lifetimes                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// SnapshotCookie holds the encrypted session snapshot so navigation
	// within the expiry window needs no user-info round trip.
	SnapshotCookie = "userData"

	// AuthCookie carries the signed bearer token issued at sign-in.
	AuthCookie = "auth_token"

	// SessionTTL bounds both cookies.
	SessionTTL = 7 * 24 * time.Hour

	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userName   = "user_name"
	userEmail  = "user_email"
	userRole   = "user_role"
	userAvatar = "user_avatar"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID     string
	Name   string
	Email  string
	Role   roles.Role
	Avatar string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user into the request context. Test helper;
// production code goes through LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// UserFetcher loads fresh user data for a verified user ID. It returns
// nil when the user no longer exists or is disabled, which resolves the
// request to signed-out.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the browser-facing session state: the encrypted
// snapshot cookie, the signed bearer token, and the middleware that
// restores both into request context.
type SessionManager struct {
	store     *sessions.CookieStore
	jwtSecret []byte
	secure    bool
	domain    string
	log       *zap.Logger
	fetcher   UserFetcher
}

// NewSessionManager builds a SessionManager. sessionKey signs and (via a
// derived 32-byte key) encrypts the snapshot cookie; jwtSecret signs the
// bearer token. secure=false only makes sense for local dev over http.
func NewSessionManager(sessionKey, jwtSecret, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if jwtSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	// Derive a fixed-size block key so the snapshot is encrypted, not
	// just signed: the cookie carries profile data.
	blockKey := sha256.Sum256([]byte(sessionKey))

	store := sessions.NewCookieStore([]byte(sessionKey), blockKey[:])
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		secure:    secure,
		domain:    domain,
		log:       logger,
	}, nil
}

// SetUserFetcher installs the fetcher used to rebuild a session from a
// bare bearer token (snapshot absent or undecryptable).
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SignIn persists the user into the snapshot cookie and issues the
// bearer token cookie. Both expire together after SessionTTL.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, _ := sm.store.Get(r, SnapshotCookie)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	sess.Values[userRole] = u.Role.String()
	sess.Values[userAvatar] = u.Avatar
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}

	token, err := sm.IssueToken(u)
	if err != nil {
		return err
	}
	sm.setAuthCookie(w, token, int(SessionTTL.Seconds()))
	return nil
}

// SignOut clears both cookies. Safe to call for a request that was never
// signed in.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, _ := sm.store.Get(r, SnapshotCookie)
	sess.Options.MaxAge = -1
	sess.Values = map[any]any{}
	_ = sess.Save(r, w)

	sm.setAuthCookie(w, "", -1)
}

func (sm *SessionManager) setAuthCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookie,
		Value:    token,
		Path:     "/",
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser injects the user into context if they are signed in.
// Restoration order: snapshot cookie (no I/O), then bearer token
// (cookie, then Authorization header) followed by a user fetch. Every
// failure path resolves to "not signed in" and continues the chain —
// this middleware never writes a response.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := sm.userFromSnapshot(r); ok {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		if u, ok := sm.userFromToken(r); ok {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) userFromSnapshot(r *http.Request) (*SessionUser, bool) {
	sess, err := sm.store.Get(r, SnapshotCookie)
	if err != nil {
		// Treat as signed out and let the token path try. A decode
		// failure is the normal aftermath of a key rotation, anything
		// else is worth a look.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Debug("stale session snapshot", zap.Error(err))
		} else {
			sm.log.Warn("session snapshot rejected", zap.Error(err))
		}
		return nil, false
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil, false
	}
	role, ok := roles.Parse(getString(sess, userRole))
	if !ok {
		// A snapshot carrying an unknown role is corrupt; fail closed.
		return nil, false
	}
	u := &SessionUser{
		ID:     getString(sess, userIDKey),
		Name:   getString(sess, userName),
		Email:  getString(sess, userEmail),
		Role:   role,
		Avatar: getString(sess, userAvatar),
	}
	if u.ID == "" {
		return nil, false
	}
	return u, true
}

func (sm *SessionManager) userFromToken(r *http.Request) (*SessionUser, bool) {
	token := BearerToken(r)
	if token == "" {
		return nil, false
	}
	claims, err := sm.VerifyToken(token)
	if err != nil {
		sm.log.Debug("bearer token rejected", zap.Error(err))
		return nil, false
	}

	// Prefer fresh data so role changes and disabled accounts take
	// effect immediately; fall back to the claims themselves.
	if sm.fetcher != nil {
		if u := sm.fetcher.FetchUser(r.Context(), claims.UserID); u != nil {
			return u, true
		}
		return nil, false
	}
	role, _ := roles.Parse(claims.Role)
	return &SessionUser{ID: claims.UserID, Email: claims.Email, Role: role}, true
}

// BearerToken extracts the credential from the auth cookie or, failing
// that, an Authorization: Bearer header (non-browser clients).
func BearerToken(r *http.Request) string {
	if c, err := r.Cookie(AuthCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser); otherwise it answers 401 with the JSON error
// envelope.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the user holds one of the allowed roles. Not
// signed in ⇒ 401; signed in with a different role ⇒ 403.
func (sm *SessionManager) RequireRole(allowed ...roles.Role) func(http.Handler) http.Handler {
	set := make(map[roles.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if _, has := set[u.Role]; !has {
				httpjson.Error(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
