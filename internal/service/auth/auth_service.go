// Package auth validates the bearer tokens minted by the chat-platform
// gateway. The gateway authenticates users against the platform itself
// and hands them an HS256 token whose subject is their platform id;
// the bot trusts nothing else about the caller.
package auth

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"scuderia-bot/internal/domain"
	"scuderia-bot/pkg/logger"
)

// Service validates platform gateway tokens
type Service struct {
	secret []byte
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(secret string, log *logger.Logger) *Service {
	return &Service{secret: []byte(secret), logger: log}
}

// ValidateToken parses and verifies a gateway token and extracts the
// platform identity from it.
func (s *Service) ValidateToken(tokenString string) (*domain.UserIdentity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected token claims type")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	// Platform ids are numeric snowflakes carried as strings to avoid
	// JSON precision loss.
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in token subject: %w", err)
	}

	identity := &domain.UserIdentity{UserID: userID}
	if username, ok := claims["username"].(string); ok {
		identity.Username = username
	}

	return identity, nil
}
