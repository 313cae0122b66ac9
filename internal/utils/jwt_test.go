package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestValidateAndParseJWTToken(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		raw := signedToken(t, testIssuer, 42, time.Hour, testSignKey)

		token, err := ValidateAndParseJWTToken(raw, testSignKey, testIssuer)
		require.NoError(t, err)
		assert.Equal(t, int64(42), token.UserID)
	})

	t.Run("WrongKey", func(t *testing.T) {
		raw := signedToken(t, testIssuer, 42, time.Hour, "other-key")

		_, err := ValidateAndParseJWTToken(raw, testSignKey, testIssuer)
		require.Error(t, err)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		raw := signedToken(t, "someone-else", 42, time.Hour, testSignKey)

		_, err := ValidateAndParseJWTToken(raw, testSignKey, testIssuer)
		require.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		raw := signedToken(t, testIssuer, 42, -time.Minute, testSignKey)

		_, err := ValidateAndParseJWTToken(raw, testSignKey, testIssuer)
		require.Error(t, err)
	})
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "Valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "MissingToken", header: "Bearer ", wantErr: true},
		{name: "NoScheme", header: "abc.def.ghi", wantErr: true},
		{name: "Empty", header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearerToken(tt.header)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
