package jwtsession

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/session"
)

func testConfig() *core.Config {
	return &core.Config{
		SecretKey: "test-secret",
		Session: core.SessionConfig{
			CookieName: "tne_session",
			MaxAge:     time.Hour,
		},
	}
}

// roundTrip saves sess on one request and returns the cookie the browser would send back.
func roundTrip(t *testing.T, p session.Provider, sess session.Session) *http.Cookie {
	rec := httptest.NewRecorder()
	require.NoError(t, p.Store(rec, httptest.NewRequest(http.MethodPost, "/login", nil)).Save(sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func load(p session.Provider, c *http.Cookie) (session.Session, bool) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if c != nil {
		req.AddCookie(c)
	}
	return p.Store(httptest.NewRecorder(), req).Load()
}

func TestStore(t *testing.T) {
	p := NewProvider(testConfig())
	sess := session.New(session.RoleAdmin, "admin@iplacex.cl")

	cookie := roundTrip(t, p, sess)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	got, ok := load(p, cookie)
	require.True(t, ok)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, "admin@iplacex.cl", got.Email)
	assert.Equal(t, sess.CreatedAt.Unix(), got.CreatedAt.Unix())

	t.Run("overwrite", func(t *testing.T) {
		other := session.New("tutor", "tutor@iplacex.cl")
		got, ok := load(p, roundTrip(t, p, other))
		require.True(t, ok)
		assert.Equal(t, "tutor", got.Role)
		assert.Equal(t, "tutor@iplacex.cl", got.Email)
	})

	t.Run("absent", func(t *testing.T) {
		_, ok := load(p, nil)
		assert.False(t, ok)
	})

	t.Run("tampered", func(t *testing.T) {
		bad := *cookie
		bad.Value = cookie.Value[:len(cookie.Value)-2] + "xx"
		_, ok := load(p, &bad)
		assert.False(t, ok)
	})

	t.Run("other secret", func(t *testing.T) {
		conf := testConfig()
		conf.SecretKey = "another-secret"
		_, ok := load(NewProvider(conf), cookie)
		assert.False(t, ok)
	})

	t.Run("unsigned", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
			StandardClaims: jwt.StandardClaims{Issuer: issuer},
			Role:           "admin",
			Email:          "x@iplacex.cl",
		})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, ok := load(p, &http.Cookie{Name: "tne_session", Value: raw})
		assert.False(t, ok)
	})
}

func TestStore_ClearAndSameRequest(t *testing.T) {
	p := NewProvider(testConfig())
	cookie := roundTrip(t, p, session.New("tutor", "tutor@iplacex.cl"))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	st := p.Store(rec, req)

	_, ok := st.Load()
	require.True(t, ok)
	require.NoError(t, st.Clear())
	_, ok = st.Load()
	assert.False(t, ok)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)

	require.NoError(t, st.Save(session.New("admin", "admin@iplacex.cl")))
	got, ok := st.Load()
	require.True(t, ok)
	assert.Equal(t, "admin", got.Role)
}
