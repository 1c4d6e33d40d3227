// Package session holds who is logged in: the bearer token and the
// identity (user, role, organization) returned at login.
//
// The session is restored from storage at startup and is the token source
// for every authenticated request.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"taskdeck/internal/service"
)

// Authenticator is the part of the service that issues tokens.
type Authenticator interface {
	Login(ctx context.Context, creds service.Credentials) (service.AuthResult, error)
	Register(ctx context.Context, reg service.Registration) (service.AuthResult, error)
	JoinOrg(ctx context.Context, reg service.Registration) (service.AuthResult, error)
}

// Session is the current login. It is safe for concurrent use.
type Session struct {
	storage Storage

	mu       sync.RWMutex
	token    string
	expiry   time.Time
	identity *service.Identity
}

// Open restores the stored session. A token that has expired is treated as
// logged out and removed from storage. Unreadable storage is cleared too.
func Open(storage Storage, now time.Time) (*Session, error) {
	s := &Session{storage: storage}
	token, id, err := storage.Load()
	if errors.Is(err, ErrNoSession) {
		return s, nil
	}
	if err != nil {
		return s, storage.Clear()
	}
	expiry := tokenExpiry(token)
	if !expiry.IsZero() && !expiry.After(now) {
		return s, storage.Clear()
	}
	s.token = token
	s.expiry = expiry
	s.identity = &id
	return s, nil
}

// tokenExpiry reads the exp claim without verifying the signature; only the
// service can verify it. Opaque tokens have no expiry.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Login authenticates with email and password.
func (s *Session) Login(ctx context.Context, auth Authenticator, creds service.Credentials) (service.Identity, error) {
	if err := creds.Validate(); err != nil {
		return service.Identity{}, err
	}
	res, err := auth.Login(ctx, creds)
	if err != nil {
		return service.Identity{}, err
	}
	return s.establish(res)
}

// Register creates an organization with the caller as its admin.
func (s *Session) Register(ctx context.Context, auth Authenticator, reg service.Registration) (service.Identity, error) {
	if err := reg.Validate(); err != nil {
		return service.Identity{}, err
	}
	res, err := auth.Register(ctx, reg)
	if err != nil {
		return service.Identity{}, err
	}
	return s.establish(res)
}

// Join adds the caller as a member of the organization with exactly the
// given name.
func (s *Session) Join(ctx context.Context, auth Authenticator, reg service.Registration) (service.Identity, error) {
	if err := reg.Validate(); err != nil {
		return service.Identity{}, err
	}
	res, err := auth.JoinOrg(ctx, reg)
	if err != nil {
		return service.Identity{}, err
	}
	return s.establish(res)
}

func (s *Session) establish(res service.AuthResult) (service.Identity, error) {
	if res.Token == "" {
		return service.Identity{}, errors.New("service returned no token")
	}
	if err := s.storage.Save(res.Token, res.Identity); err != nil {
		return service.Identity{}, err
	}
	id := res.Identity
	s.mu.Lock()
	s.token = res.Token
	s.expiry = tokenExpiry(res.Token)
	s.identity = &id
	s.mu.Unlock()
	return id, nil
}

// Logout forgets the session in memory and in storage.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.expiry = time.Time{}
	s.identity = nil
	s.mu.Unlock()
	return s.storage.Clear()
}

// LoggedIn reports whether a session is held.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Identity returns the logged-in identity.
func (s *Session) Identity() (service.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return service.Identity{}, false
	}
	return *s.identity, true
}

// IsAdmin reports whether the logged-in user is an organization admin.
func (s *Session) IsAdmin() bool {
	id, ok := s.Identity()
	return ok && id.IsAdmin()
}

// OrgName returns the organization name, empty when logged out.
func (s *Session) OrgName() string {
	id, _ := s.Identity()
	return id.OrgName
}

// Token implements oauth2.TokenSource.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil, service.ErrUnauthenticated
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer", Expiry: s.expiry}, nil
}
