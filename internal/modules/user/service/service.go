package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/karmafeed/internal/modules/user/dto"
	"anoa.com/karmafeed/internal/modules/user/repository"
	"anoa.com/karmafeed/pkg/apperror"
	commonDto "anoa.com/karmafeed/pkg/dto"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)

// TokenIssuer signs access tokens for a user id.
type TokenIssuer interface {
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	issuer   TokenIssuer
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository, issuer TokenIssuer, tokenTTL time.Duration) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &authService{
		repo:     repo,
		issuer:   issuer,
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.IssueToken(user.ID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	log.WithField("user_id", user.ID).Info("user logged in")

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        commonDto.AuthorResponse{ID: user.ID, Username: user.Username},
	}, nil
}
