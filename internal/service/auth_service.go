package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vin-decoder-service/internal/auth"
	"vin-decoder-service/internal/session"
)

type AuthService struct {
	credentials auth.CredentialStore
	tokens      *auth.TokenIssuer
	sessions    *session.Store
	log         zerolog.Logger
}

func NewAuthService(credentials auth.CredentialStore, tokens *auth.TokenIssuer, sessions *session.Store, log zerolog.Logger) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		sessions:    sessions,
		log:         log,
	}
}

type LoginResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login opens a fresh session with an IDLE lookup state.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	name := auth.NormalizeUsername(username)
	if name == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	ok, err := s.credentials.IsValid(ctx, name, password)
	if err != nil {
		s.log.Error().Err(err).Str("username", name).Msg("credential check failed")
		return nil, fmt.Errorf("failed to check credentials: %w", err)
	}
	if !ok {
		s.log.Warn().Str("username", name).Msg("login rejected")
		return nil, auth.ErrUnauthorized
	}

	sess := s.sessions.Create(name)
	token, expiresAt, err := s.tokens.Issue(name, sess.ID)
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, err
	}

	s.log.Info().Str("username", name).Str("session_id", sess.ID).Msg("user logged in")
	return &LoginResult{Token: token, Username: name, ExpiresAt: expiresAt}, nil
}

// Logout discards the session together with any decoded profile it held.
func (s *AuthService) Logout(sessionID string) {
	if s.sessions.Delete(sessionID) {
		s.log.Info().Str("session_id", sessionID).Msg("user logged out")
	}
}

// Session resolves the session behind validated token claims.
func (s *AuthService) Session(claims *auth.Claims) (*session.Session, error) {
	sess, err := s.sessions.Get(claims.SessionID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
	}
	if sess.Username != claims.Username {
		return nil, fmt.Errorf("%w: session does not belong to token subject", auth.ErrUnauthorized)
	}
	return sess, nil
}
