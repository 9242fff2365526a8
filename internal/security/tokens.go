package security

import (
	"crypto"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or fails signature, issuer or audience checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims holds the claims of an access token issued at login.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenVerifier validates access tokens (signature, exp, iss, aud) with the API's public key. It never signs.
type TokenVerifier struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
	parser    *jwt.Parser
}

// NewTokenVerifier returns a verifier for tokens signed with RS256 or ES256 by the holder of publicKey.
func NewTokenVerifier(publicKey crypto.PublicKey, issuer, audience string) (*TokenVerifier, error) {
	alg := KeyAlg(publicKey)
	if alg == "" {
		return nil, ErrInvalidKey
	}
	return &TokenVerifier{
		publicKey: publicKey,
		issuer:    issuer,
		audience:  audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{alg}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// NewTokenVerifierFromPEM parses pemOrPath (inline PEM or file path) and returns a verifier.
func NewTokenVerifierFromPEM(pemOrPath, issuer, audience string) (*TokenVerifier, error) {
	pub, err := ParsePublicKey(pemOrPath)
	if err != nil {
		return nil, fmt.Errorf("security: parse public key: %w", err)
	}
	return NewTokenVerifier(pub, issuer, audience)
}

// VerifyAccess parses and validates the access token and returns its claims.
func (v *TokenVerifier) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
