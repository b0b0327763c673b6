package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	claimSubject   = "sub"
	claimUserID    = "user_id"
	claimEmail     = "email"
	claimName      = "name"
	claimSessionID = "session_id"
)

var ErrInvalidToken = errors.New("invalid token")

// UserClaims is the subset of identity claims the widget's embedding page
// puts into its token.
type UserClaims struct {
	UserID    string
	Email     string
	Name      string
	SessionID string
}

// DecodeToken extracts claims without verifying the signature. The token is
// minted by the embedding application and only used to attribute requests,
// these endpoints are deliberately unauthenticated.
func DecodeToken(token string) (*UserClaims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	user := &UserClaims{
		UserID:    claimString(claims, claimUserID),
		Email:     claimString(claims, claimEmail),
		Name:      claimString(claims, claimName),
		SessionID: claimString(claims, claimSessionID),
	}
	if user.UserID == "" {
		user.UserID = claimString(claims, claimSubject)
	}
	if user.UserID == "" {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// FromAuthorizationHeader decodes a "Bearer <token>" header value.
func FromAuthorizationHeader(header string) (*UserClaims, error) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, ErrInvalidToken
	}
	return DecodeToken(token)
}

func claimString(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}
