// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec provides the operator-facing helper for minting the admin bearer
token the daemon's request path checks against DBAL_ADMIN_TOKEN.

The request path itself (internal/platform/middleware.AdminAuth) never
verifies a signature — it compares the presented header against one
pre-shared secret in constant time. This package exists for ops tooling
that wants to hand out a capability token with its own expiry and issuer
claim instead of typing the raw secret into a script, without introducing
a second verification path at request time.
*/
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminTokenClaims is the payload embedded in an operator-minted capability
// token. It carries no user identity — DBAL has none — only an issuer and
// expiry, since its only purpose is to bound how long a credential handed to
// a script or CI job remains valid.
type AdminTokenClaims struct {
	jwt.RegisteredClaims
}

// AdminTokenIssuer mints and verifies HS256-signed admin capability tokens
// against a single shared secret (DBAL_ADMIN_TOKEN).
type AdminTokenIssuer struct {
	secret []byte
	issuer string
}

// NewAdminTokenIssuer builds an [AdminTokenIssuer] around the configured
// admin secret.
func NewAdminTokenIssuer(secret, issuer string) *AdminTokenIssuer {
	return &AdminTokenIssuer{secret: []byte(secret), issuer: issuer}
}

// Issue mints a signed token valid for ttl, for handing to ops tooling in
// place of the raw shared secret.
func (issuer *AdminTokenIssuer) Issue(ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(issuer.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign admin token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token minted by [Issue].
func (issuer *AdminTokenIssuer) Verify(tokenString string) (*AdminTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return issuer.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sec: invalid admin token: %w", err)
	}

	claims, ok := token.Claims.(*AdminTokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid admin token claims")
	}

	return claims, nil
}
