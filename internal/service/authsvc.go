package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dominoleague/internal/auth"
	"dominoleague/internal/domain"
)

type PlayersStore interface {
	CreatePlayer(ctx context.Context, email, name, passwordHash string) (domain.Player, error)
	GetPlayerByID(ctx context.Context, id string) (domain.Player, error)
	GetPlayerByLogin(ctx context.Context, login string) (domain.PlayerWithPassword, error)
	GetPlayerByExternalAccount(ctx context.Context, provider, providerID string) (domain.Player, error)
	LinkExternalAccount(ctx context.Context, playerID, provider, providerID, email string) error
	SetLastLogin(ctx context.Context, playerID string, when time.Time) error
}

type SessionsStore interface {
	CreateSession(ctx context.Context, playerID string, expiresAt time.Time, ip, userAgent string) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
}

// GoogleTokenVerifier validates a Google ID token and returns its claims.
type GoogleTokenVerifier func(ctx context.Context, idToken string) (*auth.ExternalTokenClaims, error)

type AuthService struct {
	Players      PlayersStore
	Sessions     SessionsStore
	SessionTTL   time.Duration
	VerifyGoogle GoogleTokenVerifier
	Now          func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AuthService) Register(ctx context.Context, email, name, password, ip, userAgent string) (domain.Player, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Player{}, "", err
	}

	p, err := s.Players.CreatePlayer(ctx, email, name, passwordHash)
	if err != nil {
		return domain.Player{}, "", err
	}

	sessID, err := s.Sessions.CreateSession(ctx, p.ID, s.now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.Player{}, "", err
	}
	return p, sessID, nil
}

func (s *AuthService) Login(ctx context.Context, login, password, ip, userAgent string) (domain.Player, string, error) {
	login = strings.TrimSpace(login)

	p, err := s.Players.GetPlayerByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Player{}, "", domain.ErrInvalidCredentials
		}
		return domain.Player{}, "", err
	}
	if p.Status == domain.PlayerStatusDisabled {
		return domain.Player{}, "", domain.ErrPlayerDisabled
	}

	ok, err := auth.VerifyPassword(p.PasswordHash, password)
	if err != nil {
		return domain.Player{}, "", err
	}
	if !ok {
		return domain.Player{}, "", domain.ErrInvalidCredentials
	}

	sessID, err := s.Sessions.CreateSession(ctx, p.ID, s.now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.Player{}, "", err
	}

	_ = s.Players.SetLastLogin(ctx, p.ID, s.now())

	return p.Player, sessID, nil
}

// LoginGoogle signs a player in with a Google ID token, creating the player
// record on first authentication.
func (s *AuthService) LoginGoogle(ctx context.Context, idToken, ip, userAgent string) (domain.Player, string, error) {
	if s.VerifyGoogle == nil {
		return domain.Player{}, "", domain.ErrNotAuthenticated
	}

	claims, err := s.VerifyGoogle(ctx, idToken)
	if err != nil {
		return domain.Player{}, "", domain.ErrInvalidCredentials
	}

	p, err := s.Players.GetPlayerByExternalAccount(ctx, "google", claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		name := claims.Email
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}
		p, err = s.Players.CreatePlayer(ctx, claims.Email, name, "")
		if err != nil {
			return domain.Player{}, "", err
		}
		if err := s.Players.LinkExternalAccount(ctx, p.ID, "google", claims.Subject, claims.Email); err != nil {
			return domain.Player{}, "", err
		}
	} else if err != nil {
		return domain.Player{}, "", err
	}
	if p.Status == domain.PlayerStatusDisabled {
		return domain.Player{}, "", domain.ErrPlayerDisabled
	}

	sessID, err := s.Sessions.CreateSession(ctx, p.ID, s.now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.Player{}, "", err
	}

	_ = s.Players.SetLastLogin(ctx, p.ID, s.now())

	return p, sessID, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.RevokeSession(ctx, sessionID, s.now())
}

func (s *AuthService) GetPlayerForSession(ctx context.Context, sessionID string) (domain.Player, error) {
	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Player{}, domain.ErrNotAuthenticated
		}
		return domain.Player{}, err
	}

	p, err := s.Players.GetPlayerByID(ctx, sess.PlayerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Player{}, domain.ErrNotAuthenticated
		}
		return domain.Player{}, err
	}
	if p.Status == domain.PlayerStatusDisabled {
		return domain.Player{}, domain.ErrNotAuthorized
	}

	return p, nil
}
