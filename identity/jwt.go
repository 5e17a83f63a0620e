package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hupe1980/teambrain/core"
)

// Claim names carried in teambrain tokens.
const (
	claimTeamID      = "team_id"
	claimDisplayName = "name"
)

// JWTResolver verifies HS256 tokens and extracts the caller identity from
// the standard subject claim plus team_id/name custom claims.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver constructs a resolver validating tokens signed with secret.
func NewJWTResolver(secret []byte) *JWTResolver {
	return &JWTResolver{secret: secret}
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(_ context.Context, token string) (core.Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return core.Identity{}, core.NewAuthError(fmt.Sprintf("invalid token: %v", err))
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return core.Identity{}, core.NewAuthError("unexpected claims type")
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return core.Identity{}, core.NewAuthError("token missing subject")
	}

	teamID, _ := claims[claimTeamID].(string)
	if teamID == "" {
		return core.Identity{}, core.NewAuthError("token missing team_id claim")
	}

	name, _ := claims[claimDisplayName].(string)

	return core.Identity{UserID: sub, TeamID: teamID, DisplayName: name}, nil
}

// SignToken issues an HS256 token for the given identity, valid for ttl.
// Primarily used by tests and the dev tooling.
func SignToken(secret []byte, id core.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":            id.UserID,
		claimTeamID:      id.TeamID,
		claimDisplayName: id.DisplayName,
		"iat":            now.Unix(),
		"exp":            now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}
