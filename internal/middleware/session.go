package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/courseloop/academy-server-go/internal/model"
)

const (
	SessionCookie = "session"
	SessionMaxAge = 24 * time.Hour
)

const UserContextKey contextKey = "user"

// Authenticator resolves a raw session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*model.User, error)
}

// GetUser returns the signed-in user, or nil for anonymous requests.
func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

type SessionMiddleware struct {
	auth Authenticator
}

func NewSessionMiddleware(auth Authenticator) *SessionMiddleware {
	return &SessionMiddleware{auth: auth}
}

// Handler rejects requests without a valid session cookie.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.resolve(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalHandler attaches the user when a valid session exists but lets
// anonymous requests through, for views with a free-preview slice.
func (m *SessionMiddleware) OptionalHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.resolve(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *SessionMiddleware) resolve(r *http.Request) *model.User {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	user, err := m.auth.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return user
}

func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
