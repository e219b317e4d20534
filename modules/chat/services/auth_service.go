package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
)

type AuthService struct {
	users         user.Repository
	secret        []byte
	tokenDuration time.Duration
}

func NewAuthService(users user.Repository, secret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		secret:        []byte(secret),
		tokenDuration: tokenDuration,
	}
}

// Register creates the user and returns it with a fresh access token.
func (s *AuthService) Register(ctx context.Context, dto *user.CreateDTO) (user.User, string, error) {
	dto.Normalize()

	_, err := s.users.GetByName(ctx, dto.Name)
	if err == nil {
		return user.User{}, "", user.ErrNameTaken
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, "", err
	}

	created, err := s.users.Create(ctx, user.New(dto.Name))
	if err != nil {
		return user.User{}, "", err
	}

	token, err := s.IssueToken(created.UUID)
	if err != nil {
		return user.User{}, "", err
	}
	return created, token, nil
}

// Login looks the user up by name and returns an access token.
func (s *AuthService) Login(ctx context.Context, name string) (user.User, string, error) {
	u, err := s.users.GetByName(ctx, name)
	if err != nil {
		return user.User{}, "", err
	}

	token, err := s.IssueToken(u.UUID)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (user.User, error) {
	return s.users.GetByUUID(ctx, userID)
}

// IssueToken signs an HS256 token whose subject is the user's UUID.
func (s *AuthService) IssueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
