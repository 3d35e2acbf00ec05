package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// supabaseClaims is the subset of a Supabase GoTrue JWT this service relies on.
type supabaseClaims struct {
	Sub            string                 `json:"sub"`
	Role           string                 `json:"role"`
	Exp            int64                  `json:"exp"`
	AppMetadata    map[string]interface{} `json:"app_metadata"`
	jwt.RegisteredClaims
}

// SupabaseSessionVerifier validates GoTrue-issued access tokens (the identity
// provider is treated as an opaque resolver; only the JWT
// verification contract is implemented here).
type SupabaseSessionVerifier struct {
	jwtSecret []byte
}

// NewSupabaseSessionVerifier builds a verifier against the project JWT secret.
func NewSupabaseSessionVerifier(jwtSecret string) *SupabaseSessionVerifier {
	return &SupabaseSessionVerifier{jwtSecret: []byte(strings.TrimSpace(jwtSecret))}
}

// Verify implements SessionTokenVerifier.
func (v *SupabaseSessionVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	if len(v.jwtSecret) == 0 {
		return Principal{}, fmt.Errorf("session token verification not configured")
	}

	parsed, err := jwt.ParseWithClaims(token, &supabaseClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.jwtSecret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*supabaseClaims)
	if !ok || !parsed.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}
	if claims.Exp != 0 && time.Now().Unix() > claims.Exp {
		return Principal{}, fmt.Errorf("token expired")
	}
	if claims.Sub == "" {
		return Principal{}, fmt.Errorf("token missing subject")
	}

	principal := Principal{UserID: claims.Sub}
	if orgID, ok := claims.AppMetadata["organization_id"].(string); ok {
		principal.OrganizationID = orgID
	}
	return principal, nil
}
