package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// TokenPair is what a successful login or refresh hands back to the HTTP
// layer to be set as cookies.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type Service interface {
	Register(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) error
}

type service struct {
	repo   Repository
	tokens *TokenManager
}

func NewService(repo Repository, tokens *TokenManager) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	u := &User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleCustomer,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user")
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: user registered")
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("service: failed to get user for login")
		return nil, nil, fmt.Errorf("service: failed to get user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue access token")
		return nil, nil, fmt.Errorf("service: failed to issue access token: %w", err)
	}

	refreshToken, expiresAt, err := s.tokens.IssueRefreshToken(u.ID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue refresh token")
		return nil, nil, fmt.Errorf("service: failed to issue refresh token: %w", err)
	}

	err = s.repo.StoreRefreshToken(ctx, &RefreshToken{
		Token:     refreshToken,
		UserID:    u.ID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to store refresh token")
		return nil, nil, fmt.Errorf("service: failed to store refresh token: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: user logged in")

	return u, &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// Refresh exchanges a stored, unexpired refresh token for a new access token.
// Any verification failure revokes the stored token.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return "", ErrTokenRevoked
		}
		log.Error().Err(err).Msg("service: failed to look up refresh token")
		return "", fmt.Errorf("service: failed to look up refresh token: %w", err)
	}

	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		s.revoke(ctx, refreshToken)
		return "", ErrInvalidToken
	}

	userID, err := uuid.FromString(claims.UserID)
	if err != nil || userID != stored.UserID {
		s.revoke(ctx, refreshToken)
		return "", ErrInvalidToken
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.revoke(ctx, refreshToken)
			return "", ErrInvalidToken
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to get user for refresh")
		return "", fmt.Errorf("service: failed to get user for refresh: %w", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue access token on refresh")
		return "", fmt.Errorf("service: failed to issue access token: %w", err)
	}

	return accessToken, nil
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		log.Error().Err(err).Msg("service: failed to revoke refresh token on logout")
		return fmt.Errorf("service: failed to revoke refresh token: %w", err)
	}

	return nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to get user by id")
		return nil, fmt.Errorf("service: failed to get user by id: %w", err)
	}

	return u, nil
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Profile{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Address:   u.Address,
	}, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) error {
	err := s.repo.UpdateProfile(ctx, id, p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to update profile")
		return fmt.Errorf("service: failed to update profile: %w", err)
	}

	return nil
}

func (s *service) revoke(ctx context.Context, token string) {
	if err := s.repo.DeleteRefreshToken(ctx, token); err != nil {
		log.Error().Err(err).Msg("service: failed to delete invalid refresh token")
	}
}
