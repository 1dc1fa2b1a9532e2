package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusworks/winter-registry/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// SessionService issues and reconciles the client-side registration mirror.
// The mirror is a signed snapshot of the user's canonical identifier; on
// reconcile the store is re-read and server data wins. The token is never
// the system of record.
type SessionService struct {
	repo   domain.RegistrationRepository
	secret []byte
	ttl    time.Duration
}

// NewSessionService creates a new SessionService.
func NewSessionService(repo domain.RegistrationRepository, secret string) *SessionService {
	return &SessionService{
		repo:   repo,
		secret: []byte(secret),
		ttl:    30 * 24 * time.Hour,
	}
}

// Issue returns a signed token mirroring the registration's identity.
func (s *SessionService) Issue(reg *domain.Registration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": reg.Identifier,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Reconcile validates tokenString and re-reads the registration from the
// store. The returned row is the server's current state; a valid token
// whose registration no longer exists yields domain.ErrNotFound.
func (s *SessionService) Reconcile(ctx context.Context, tokenString string) (*domain.Registration, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	identifier, err := claims.GetSubject()
	if err != nil || identifier == "" {
		return nil, domain.ErrUnauthorized
	}

	reg, err := s.repo.FindMatching(ctx, identifier, identifier, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reconcile session: %w", err)
	}
	return reg, nil
}
