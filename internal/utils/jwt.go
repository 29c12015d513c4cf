package utils // package utils provides token issuing, verification and password hashing helpers

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/stream-user-service/internal/model"
)

// ErrInvalidToken is returned whenever a token fails signature, expiry or
// claim-shape verification.  Callers treat every variant the same way
// (reject with 401), so one sentinel suffices.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a short-lived HS256 JWT carrying the identity fields a
// handler needs, so protected requests are authorized without a database
// lookup.  It is never persisted server-side.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken is a long-lived HS256 JWT carrying only the account id,
// signed with a secret distinct from the access secret.  The raw string is
// persisted on the account row; renewal compares the incoming token against
// that single stored value, which is what gives the server revocation power.
type RefreshToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // UTC expiration time
}

// AccessClaims is the decoded payload of an access token.
type AccessClaims struct {
	UserID   uint64
	Username string
	Email    string
	FullName string
}

// NewAccessToken builds and signs the access JWT for a user.  Claims:
// subject (sub), username, email, full_name, expiration (exp) and issued
// at (iat).  ttlMin is the lifetime in minutes.
func NewAccessToken(secret string, u model.User, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":       u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"full_name": u.FullName,
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs the refresh JWT.  The payload holds the
// account id plus a random jti; everything else is re-read from the
// database on renewal.  The jti guarantees two tokens issued in the same
// second still differ, so rotation always invalidates the previous value.
// ttlDays is the lifetime in days.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken checks signature and expiry against the access secret
// and returns the identity claims.
func VerifyAccessToken(secret, raw string) (AccessClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return AccessClaims{}, err
	}
	out := AccessClaims{UserID: subjectID(claims)}
	if out.UserID == 0 {
		return AccessClaims{}, ErrInvalidToken
	}
	out.Username, _ = claims["username"].(string)
	out.Email, _ = claims["email"].(string)
	out.FullName, _ = claims["full_name"].(string)
	return out, nil
}

// VerifyRefreshToken checks signature and expiry against the refresh secret
// and returns the embedded account id.
func VerifyRefreshToken(secret, raw string) (uint64, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return 0, err
	}
	id := subjectID(claims)
	if id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// parseHS256 parses raw with the given secret, rejecting tokens signed with
// any non-HMAC method.  Expiry is validated by the jwt library.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// subjectID extracts the numeric subject claim.  JSON numbers decode as
// float64; some encoders emit the id as a string instead.
func subjectID(claims jwt.MapClaims) uint64 {
	switch v := claims["sub"].(type) {
	case float64:
		return uint64(v)
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return id
		}
	}
	return 0
}
