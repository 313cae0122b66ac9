package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a parsed JWT used to authenticate sync requests.
//
// It embeds [jwt.Token] for low-level claim inspection and
// [jwt.RegisteredClaims] for standard claim access (subject, expiry, etc.).
// UserID is a cached, parsed copy of the "sub" claim converted to int64,
// populated during validation to avoid repeated string-to-int parsing.
type Token struct {
	// Token is the underlying JWT used for claim inspection. Excluded from
	// JSON serialization; only the compact string form is meaningful
	// outside the server process.
	*jwt.Token `json:"-"`

	// RegisteredClaims provides access to the standard JWT claim set
	// (sub, exp, iat, nbf, iss, aud, jti) as defined by RFC 7519.
	jwt.RegisteredClaims

	// UserID is the owner identifier extracted from the "sub" claim.
	UserID int64 `json:"-"`
}

// GetUserID extracts the user identifier from the token's "sub" (subject)
// claim, parses it as a base-10 int64, and returns the result.
func (t *Token) GetUserID() (int64, error) {
	userIDString, err := t.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("error extracting user id from token: %w", err)
	}

	userID, err := strconv.ParseInt(userIDString, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting user id from token to int64: %w", err)
	}

	return userID, nil
}
