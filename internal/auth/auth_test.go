package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestStaticStore(t *testing.T) {
	store := NewStaticStore(map[string]string{"admin": "1741", "gast": "vin2024", "User": "user123"})
	ctx := context.Background()

	tests := []struct {
		username, password string
		want               bool
	}{
		{"admin", "1741", true},
		{"  ADMIN ", "1741", true},
		{"gast", "vin2024", true},
		{"user", "user123", true},
		{"admin", "1741 ", false},
		{"admin", "wrong", false},
		{"nobody", "1741", false},
		{"", "", false},
	}
	for _, tt := range tests {
		ok, err := store.IsValid(ctx, tt.username, tt.password)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%q/%q", tt.username, tt.password)
	}
}

type fakeUsers struct {
	hashes map[string]string
	err    error
}

func (f *fakeUsers) PasswordHash(_ context.Context, username string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	h, ok := f.hashes[username]
	return h, ok, nil
}

func TestDBStore(t *testing.T) {
	hash, err := HashPassword("vin2024", bcrypt.MinCost)
	require.NoError(t, err)
	store := NewDBStore(&fakeUsers{hashes: map[string]string{"gast": hash}})
	ctx := context.Background()

	ok, err := store.IsValid(ctx, " Gast", "vin2024")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.IsValid(ctx, "gast", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.IsValid(ctx, "admin", "1741")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewDBStore(&fakeUsers{err: errors.New("db down")}).IsValid(ctx, "gast", "vin2024")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, expiresAt, err := issuer.Issue("admin", "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "session-1", claims.SessionID())
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _, err := issuer.Issue("admin", "session-1")
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("admin", "session-1")
	require.NoError(t, err)
	_, err = issuer.Parse(old)
	assert.ErrorIs(t, err, ErrUnauthorized)

	noSession, _, err := issuer.Issue("admin", "")
	require.NoError(t, err)
	_, err = issuer.Parse(noSession)
	assert.ErrorIs(t, err, ErrUnauthorized)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"iss": "vin-decoder", "jti": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(none)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewTokenIssuer("secret", time.Hour)

	r := gin.New()
	r.GET("/me", Middleware(issuer), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"username": claims.Username})
	})

	token, _, err := issuer.Issue("gast", "s-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lower-case scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
