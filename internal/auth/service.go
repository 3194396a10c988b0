package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hana-ti/home-planner/internal/authevents"
	"github.com/hana-ti/home-planner/internal/config"
	"github.com/hana-ti/home-planner/internal/identity"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalidated = errors.New("token version invalidated")
)

// Claims are carried by both access and refresh tokens.
type Claims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

// Publisher receives auth state notifications.
type Publisher interface {
	Publish(ev authevents.Event)
}

type Service struct {
	cfg    config.Config
	idRepo identity.Repository
	events Publisher
	now    func() time.Time
}

func NewService(cfg config.Config, idRepo identity.Repository, events Publisher) *Service {
	return &Service{cfg: cfg, idRepo: idRepo, events: events, now: time.Now}
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Login issues a token pair for an authenticated user and announces the new auth state.
func (s *Service) Login(user identity.User) (TokenPair, error) {
	access, err := s.sign(user.ID, user.TokenVersion, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(user.ID, user.TokenVersion, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	s.publish(authevents.Event{Type: authevents.TypeAuthStateChanged, UserID: user.ID, State: authevents.StateLoggedIn})
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

func (s *Service) sign(userID string, version int, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies an access token. An expired but otherwise valid
// token yields its claims together with ErrTokenExpired.
func (s *Service) ParseAccessToken(token string) (Claims, error) {
	return s.parse(token, s.cfg.JWTSecret)
}

func (s *Service) parse(token, secret string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims, ErrTokenExpired
	default:
		return Claims{}, ErrInvalidToken
	}
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := s.parse(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return "", 0, err
	}
	user, err := s.idRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return "", 0, identity.ErrUserNotFound
	}
	if user.TokenVersion != claims.Version {
		return "", 0, ErrTokenInvalidated
	}
	signed, err := s.sign(user.ID, claims.Version, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout increments token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, err := s.idRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.idRepo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion+1); err != nil {
		return err
	}
	s.publish(authevents.Event{Type: authevents.TypeAuthStateChanged, UserID: user.ID, State: authevents.StateLoggedOut})
	return nil
}

// Expired announces that userID presented an expired access token.
func (s *Service) Expired(userID string) {
	s.publish(authevents.Event{Type: authevents.TypeTokenExpired, UserID: userID})
}

func (s *Service) publish(ev authevents.Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}
