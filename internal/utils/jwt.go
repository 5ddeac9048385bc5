package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short-lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role, and a TTL in minutes.  It
// returns an AccessToken structure containing the signed token and its
// expiration time.  The JWT includes standard claims: subject (sub), role,
// expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// Claims holds the fields extracted from a verified access token.
type Claims struct {
    UserID uint64
    Role   string
}

// ParseAccessToken verifies the signature and expiry of a token string
// and returns its claims.  Only HS256 tokens signed with the given
// secret are accepted.
func ParseAccessToken(secret, tokenStr string) (Claims, error) {
    tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
        if t.Method != jwt.SigningMethodHS256 {
            return nil, errors.New("unexpected signing method")
        }
        return []byte(secret), nil
    })
    if err != nil {
        return Claims{}, err
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return Claims{}, errors.New("invalid token claims")
    }
    sub, ok := mc["sub"].(float64)
    if !ok {
        return Claims{}, errors.New("missing sub claim")
    }
    role, _ := mc["role"].(string)
    return Claims{UserID: uint64(sub), Role: role}, nil
}
