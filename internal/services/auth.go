package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/cache"
	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/uppermind"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

// Directory is the credential service users authenticate against.
type Directory interface {
	Authenticate(ctx context.Context, username, password string) (*uppermind.TokenResponse, error)
	GetUser(ctx context.Context, token string) (*models.User, error)
}

type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	directory Directory
	cache     cache.Client
	ttl       time.Duration
	logger    *utils.Logger
}

func NewAuthService(directory Directory, c cache.Client, ttl time.Duration, logger *utils.Logger) AuthService {
	return &authService{
		directory: directory,
		cache:     c,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, utils.NewBadRequestError("Username and password are required")
	}

	token, err := s.directory.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.logger.Warn("Login failed", "username", req.Username, "error", err)
		return nil, utils.NewUnauthorizedError("Authentication failed")
	}
	if token.AccessToken == "" {
		return nil, utils.NewUnauthorizedError("No access token received")
	}

	user, err := s.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return nil, utils.NewUnauthorizedError("Failed to fetch user info")
	}

	s.logger.Info("User logged in", "username", user.DisplayName())

	return &models.LoginResponse{
		AccessToken: token.AccessToken,
		User:        user.Raw,
	}, nil
}

// CurrentUser resolves a bearer token to its user. Lookups are cached for
// the configured TTL; a cache outage only costs the round-trip.
func (s *authService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, utils.NewUnauthorizedError("Missing or invalid authorization header")
	}

	key := cache.TokenKey(token)

	if body, err := s.cache.Get(ctx, key); err == nil {
		if user, err := uppermind.DecodeUser(body); err == nil {
			user.Token = token
			return user, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Auth cache lookup failed", "error", err)
	}

	user, err := s.directory.GetUser(ctx, token)
	if err != nil {
		if !errors.Is(err, uppermind.ErrUnauthorized) {
			s.logger.Error("Failed to validate token", "error", err)
		}
		return nil, utils.NewUnauthorizedError("Invalid or expired token")
	}

	if body, err := json.Marshal(user.Raw); err == nil {
		if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
			s.logger.Warn("Auth cache store failed", "error", err)
		}
	}

	user.Token = token
	return user, nil
}
