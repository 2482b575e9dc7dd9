package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("unauthorized")

// CredentialStore decides whether a username/password pair may open a session.
type CredentialStore interface {
	IsValid(ctx context.Context, username, password string) (bool, error)
}

// NormalizeUsername trims and lower-cases; passwords are compared as typed.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// StaticStore checks against a fixed table, typically from config.
type StaticStore struct {
	users map[string]string
}

func NewStaticStore(users map[string]string) *StaticStore {
	normalized := make(map[string]string, len(users))
	for name, password := range users {
		normalized[NormalizeUsername(name)] = password
	}
	return &StaticStore{users: normalized}
}

func (s *StaticStore) IsValid(_ context.Context, username, password string) (bool, error) {
	expected, ok := s.users[NormalizeUsername(username)]
	if !ok {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1, nil
}

// UserSource is the persistence side of DBStore.
type UserSource interface {
	PasswordHash(ctx context.Context, username string) (string, bool, error)
}

// DBStore checks bcrypt hashes kept in the users table.
type DBStore struct {
	users UserSource
}

func NewDBStore(users UserSource) *DBStore {
	return &DBStore{users: users}
}

func (s *DBStore) IsValid(ctx context.Context, username, password string) (bool, error) {
	hash, ok, err := s.users.PasswordHash(ctx, NormalizeUsername(username))
	if err != nil {
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	if !ok {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
}

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
