// Package session issues and verifies the stateless session cookie.
//
// The cookie carries only the user id, encrypted and authenticated with keys
// derived from SESSION_SECRET. Nothing is stored server side, so a session
// ends when the cookie expires or the client drops it.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const (
	CookieName = "__session"
	LoginPath  = "/login"

	hashKeyLength  = 64
	blockKeyLength = 32
)

// UnauthenticatedError is returned by RequireAuth. RedirectTo points at the
// login page with the original destination preserved.
type UnauthenticatedError struct {
	RedirectTo string
}

func (e *UnauthenticatedError) Error() string {
	return "authentication required"
}

// IsUnauthenticated reports whether err came from the session gate.
func IsUnauthenticated(err error) (*UnauthenticatedError, bool) {
	var uerr *UnauthenticatedError
	if errors.As(err, &uerr) {
		return uerr, true
	}
	return nil, false
}

type payload struct {
	UserID string `json:"userId"`
}

type Manager struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewManager derives the signing and encryption keys from secret.
// secure sets the Secure cookie attribute and should be on in production.
func NewManager(secret string, maxAge time.Duration, secure bool) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}

	hashKey, err := deriveKey(secret, "session-hash", hashKeyLength)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(secret, "session-block", blockKeyLength)
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(maxAge / time.Second))
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{codec: codec, maxAge: maxAge, secure: secure}, nil
}

func deriveKey(secret, info string, length int) ([]byte, error) {
	key := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}

// Issue encodes a session value for userID.
func (m *Manager) Issue(userID string) (string, error) {
	encoded, err := m.codec.Encode(CookieName, payload{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return encoded, nil
}

// Decode returns the user id carried by an encoded session value.
// Tampered, expired, foreign-key and empty values all yield ok=false.
func (m *Manager) Decode(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	var p payload
	if err := m.codec.Decode(CookieName, value, &p); err != nil {
		return "", false
	}
	if p.UserID == "" {
		return "", false
	}
	return p.UserID, true
}

// Commit sets the session cookie for userID on the response.
func (m *Manager) Commit(c *fiber.Ctx, userID string) error {
	value, err := m.Issue(userID)
	if err != nil {
		return err
	}
	c.Cookie(m.cookie(value, int(m.maxAge/time.Second), time.Time{}))
	return nil
}

// Read returns the user id of the request's session, if any. It never fails.
func (m *Manager) Read(c *fiber.Ctx) (string, bool) {
	return m.Decode(c.Cookies(CookieName))
}

// RequireAuth returns the session user id or an *UnauthenticatedError whose
// RedirectTo sends the client to login and back to the current URL.
func (m *Manager) RequireAuth(c *fiber.Ctx) (string, error) {
	if userID, ok := m.Read(c); ok {
		return userID, nil
	}
	return "", &UnauthenticatedError{RedirectTo: LoginRedirect(c.OriginalURL())}
}

// Destroy instructs the client to drop the session cookie.
func (m *Manager) Destroy(c *fiber.Ctx) {
	c.Cookie(m.cookie("", -1, time.Unix(0, 0)))
}

func (m *Manager) cookie(value string, maxAge int, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// LoginRedirect builds the login URL that returns to target afterwards.
func LoginRedirect(target string) string {
	return LoginPath + "?redirectTo=" + url.QueryEscape(target)
}
