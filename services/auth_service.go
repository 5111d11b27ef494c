//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks

package services

import (
	"fmt"
	"time"

	"bell-registry/auth"
	"bell-registry/domain"
	"bell-registry/errors"
	"bell-registry/repositories"
)

type IAuthService interface {
	Login(email, password string) (Token, error)
	Register(email, password string, role domain.Role) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(email, password string, role domain.Role) (Token, error) {
	if role != domain.RoleClient && role != domain.RoleProfessional {
		return "", errors.ErrInvalidRole
	}

	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
		Role:     string(role),
	}

	// 1. Validate business rules (email format, password complexity, role)
	// before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id. Done in the service layer to
	// keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash.
	userID, err := s.userRepository.CreateUser(email, hashedPassword, role)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if email is taken
	}

	// 4. Generate the initial session token.
	token, err := auth.GenerateToken(userID, role, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	// Generic error on every failure path to prevent user enumeration.
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}
