package http

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/service"
	"github.com/ndelyukov/go-note-sync/internal/utils"
)

const (
	testSignKey = "test-sign-key"
	testIssuer  = "notes-app"
)

func signedToken(t *testing.T, issuer string, userID int64, ttl time.Duration, key string) string {
	t.Helper()

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func newAuthTestHandler() *Handler {
	return &Handler{
		services: &service.Services{SyncService: &mockSyncService{}},
		cfg:      config.App{TokenSignKey: testSignKey, TokenIssuer: testIssuer},
		logger:   logger.Nop(),
	}
}

// echoUserID is the downstream handler under the auth middleware: it
// reports whether the user ID landed in the request context.
func echoUserID(t *testing.T, gotUserID *int64) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, found := utils.GetUserIDFromContext(r.Context())
		require.True(t, found)
		*gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	h := newAuthTestHandler()

	var gotUserID int64
	protected := h.auth(echoUserID(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/sync/pull", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testIssuer, 42, time.Hour, testSignKey))

	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestAuth_Rejections(t *testing.T) {
	h := newAuthTestHandler()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no token value", "Bearer"},
		{"wrong sign key", "Bearer " + signedToken(t, testIssuer, 42, time.Hour, "other-key")},
		{"wrong issuer", "Bearer " + signedToken(t, "someone-else", 42, time.Hour, testSignKey)},
		{"expired", "Bearer " + signedToken(t, testIssuer, 42, -time.Minute, testSignKey)},
		{"garbage", "Bearer not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			protected := h.auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("downstream handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/sync/pull", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}
