package services

import (
	"errors"

	"talky/internal/auth"
	"talky/internal/models"
	"talky/internal/repositories"
	"talky/pkg/apperrors"
)

type AuthService struct {
	userRepo repositories.UserRepository
	issuer   *auth.TokenIssuer
}

func NewAuthService(userRepo repositories.UserRepository, issuer *auth.TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, issuer: issuer}
}

// Login verifies credentials and returns a session token plus the
// authenticated user. A disabled account fails the same way as a wrong
// password.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, apperrors.InternalError(err)
	}
	if !user.Active || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}

	token, err := s.issuer.Issue(user.ID, user.Email, roles)
	if err != nil {
		return "", nil, apperrors.InternalError(err)
	}
	return token, user, nil
}

// Authenticate resolves a token back to its user, rejecting tokens for
// users that have since been deleted or deactivated.
func (s *AuthService) Authenticate(tokenStr string) (*models.User, error) {
	claims, err := s.issuer.Parse(tokenStr)
	if err != nil {
		return nil, apperrors.ErrInvalidAuthToken
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil || !user.Active {
		return nil, apperrors.ErrInvalidAuthToken
	}
	return user, nil
}
