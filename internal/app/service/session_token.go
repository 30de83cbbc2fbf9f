package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidToken  = errors.New("invalid session token")
	ErrMissingSecret = errors.New("session secret is not configured")
)

// sessionSigner wraps the opaque session id in an HMAC envelope, so tampered
// cookies are rejected without touching the session store. The cookie value
// stays opaque to the client; expiry lives server-side with the session.
type sessionSigner struct {
	secret []byte
}

func newSessionSigner(secret []byte) *sessionSigner {
	return &sessionSigner{secret: secret}
}

// Issue wraps the session id into a signed cookie token.
func (s *sessionSigner) Issue(id string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	idEnc := base64.RawURLEncoding.EncodeToString([]byte(id))
	signature := s.sign(id)
	sigEnc := base64.RawURLEncoding.EncodeToString(signature[:16])
	return fmt.Sprintf("%s.%s", idEnc, sigEnc), nil
}

// Parse verifies the token signature and returns the embedded session id.
func (s *sessionSigner) Parse(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrInvalidToken
	}

	idRaw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidToken
	}

	sigProvided, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidToken
	}
	if len(sigProvided) != 16 {
		return "", ErrInvalidToken
	}

	expected := s.sign(string(idRaw))
	if !hmac.Equal(sigProvided, expected[:16]) {
		return "", ErrInvalidToken
	}

	return string(idRaw), nil
}

func (s *sessionSigner) sign(id string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return mac.Sum(nil)
}
