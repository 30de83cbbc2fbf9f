package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/clicktally/clicktally/internal/app/model"
	"github.com/clicktally/clicktally/internal/app/repository"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials signals a username/password mismatch.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotAuthenticated signals that no live session backs the token.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Credentials is the single pre-configured admin identity. The check is
// stateless and side-effect-free.
type Credentials struct {
	Username string
	Password string
}

// Match compares the submitted pair against the configured identity in
// constant time. Inputs are digested first so the comparison length never
// depends on either secret.
func (c Credentials) Match(username, password string) bool {
	userWant := sha256.Sum256([]byte(c.Username))
	userGot := sha256.Sum256([]byte(username))
	passWant := sha256.Sum256([]byte(c.Password))
	passGot := sha256.Sum256([]byte(password))

	userOK := subtle.ConstantTimeCompare(userWant[:], userGot[:])
	passOK := subtle.ConstantTimeCompare(passWant[:], passGot[:])
	return userOK&passOK == 1
}

// AuthService owns the admin session lifecycle: Anonymous until a successful
// login, Authenticated until logout or expiry. There is deliberately no
// lockout or backoff on failed logins; callers see plain rejection.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, err error)
	Check(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	creds    Credentials
	sessions repository.SessionStore
	signer   *sessionSigner
	now      func() time.Time
}

// NewAuthService returns an AuthService bound to one admin identity and a
// session store. The secret signs cookie tokens so tampered cookies are
// dropped before any store lookup.
func NewAuthService(creds Credentials, sessions repository.SessionStore, secret []byte) AuthService {
	return &authService{
		creds:    creds,
		sessions: sessions,
		signer:   newSessionSigner(secret),
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	if !s.creds.Match(username, password) {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	id := uuid.NewString()
	session := &model.Session{
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(model.SessionTTL),
	}

	if err := s.sessions.Set(ctx, id, session, model.SessionTTL); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	token, err := s.signer.Issue(id)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	return token, nil
}

// Check is a read-only probe: it never mutates session state beyond the lazy
// eviction of an entry that already expired.
func (s *authService) Check(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	id, err := s.signer.Parse(token)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(s.now()) {
		_ = s.sessions.Destroy(ctx, id)
		return nil, ErrNotAuthenticated
	}

	return session, nil
}

// Logout invalidates the session server-side. A teardown failure is surfaced
// to the caller even though the client should treat itself as logged out.
func (s *authService) Logout(ctx context.Context, token string) error {
	id, err := s.signer.Parse(token)
	if err != nil {
		return ErrNotAuthenticated
	}

	if err := s.sessions.Destroy(ctx, id); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
