// Package auth resolves the opaque request token into a verified
// identity. Identity issuance itself is owned by the external provider;
// this core only verifies and never creates identities.
package auth

import (
	"chatify/domain"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the token.
type CustomClaims struct {
	UID      string `json:"u_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier checks token signatures with the shared provider secret.
type Verifier struct {
	key []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{key: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a token
// string and resolves the canonical identity it carries.
func (v *Verifier) Verify(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return domain.Identity{UID: claims.UID, Username: claims.Username}, nil
	}
	return domain.Identity{}, jwt.ErrSignatureInvalid
}

// Issue creates a signed token for an identity. Production tokens come
// from the identity provider; this is for local development and tests.
func (v *Verifier) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		UID:      identity.UID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chatify",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.key)
}
