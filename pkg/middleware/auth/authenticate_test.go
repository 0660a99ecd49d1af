package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/zone_service/internal/auth"
	"github.com/Skotchmaster/zone_service/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

func sign(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(sub, role, time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, mw echo.MiddlewareFunc, prepare func(*http.Request)) (*auth.Identity, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *auth.Identity
	err := mw(func(c echo.Context) error {
		if id, ok := auth.FromContext(c.Request().Context()); ok {
			seen = &id
		}
		return c.NoContent(http.StatusOK)
	})(c)
	return seen, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthenticator(secret)
	uid := uuid.New()

	t.Run("missing token", func(t *testing.T) {
		_, err := run(t, m.RequireAuth, nil)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("cookie", func(t *testing.T) {
		id, err := run(t, m.RequireAuth, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: sign(t, uid.String(), "user")})
		})
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, uid, id.UserID)
		assert.Equal(t, "user", id.Role)
	})

	t.Run("bearer header", func(t *testing.T) {
		id, err := run(t, m.RequireAuth, func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, uid.String(), "admin"))
		})
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.True(t, id.IsAdmin())
	})

	t.Run("subject not a uuid", func(t *testing.T) {
		_, err := run(t, m.RequireAuth, func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, "42", "user"))
		})
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})
}

func TestRequireAdmin(t *testing.T) {
	m := NewAuthenticator(secret)

	_, err := run(t, m.RequireAdmin, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, uuid.NewString(), "user"))
	})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	id, err := run(t, m.RequireAdmin, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, uuid.NewString(), "admin"))
	})
	require.NoError(t, err)
	require.NotNil(t, id)
}
