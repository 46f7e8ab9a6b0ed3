package services

import (
	"errors"

	"talky/internal/auth"
	"talky/internal/models"
	"talky/internal/repositories"
	"talky/pkg/apperrors"
)

type CreateUserInput struct {
	Name         string   `json:"name" validate:"required,notblank,max=255"`
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=8"`
	ExperimentID uint     `json:"experiment_id" validate:"required"`
	Roles        []string `json:"roles" validate:"dive,is-role-name"`
	Active       *bool    `json:"active"`
}

type UpdateUserInput struct {
	Name         *string  `json:"name" validate:"omitempty,notblank,max=255"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Password     *string  `json:"password" validate:"omitempty,min=8"`
	ExperimentID *uint    `json:"experiment_id"`
	Roles        []string `json:"roles" validate:"dive,is-role-name"`
	Active       *bool    `json:"active"`
}

// UserService owns account administration. Accounts only ever come
// from the admin area; there is no self-registration.
type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) Create(input CreateUserInput) (*models.User, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Active:       true,
		ExperimentID: input.ExperimentID,
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.assignRoles(user, input.Roles, models.RoleUser); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.ExperimentID != nil {
		user.ExperimentID = *input.ExperimentID
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if input.Roles != nil {
		if err := s.assignRoles(user, input.Roles, ""); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *UserService) Delete(id uint) error {
	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *UserService) List(limit, offset int) ([]models.User, error) {
	users, err := s.userRepo.FindAll(limit, offset)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return users, nil
}

// assignRoles replaces the user's roles. With no names given, fallback
// (when non-empty) is applied instead.
func (s *UserService) assignRoles(user *models.User, names []string, fallback string) error {
	if len(names) == 0 {
		if fallback == "" {
			return nil
		}
		names = []string{fallback}
	}
	roles := make([]models.Role, 0, len(names))
	for _, name := range names {
		role, err := s.userRepo.FindRoleByName(name)
		if err != nil {
			return apperrors.InternalError(err)
		}
		roles = append(roles, *role)
	}
	if err := s.userRepo.ReplaceRoles(user, roles); err != nil {
		return apperrors.InternalError(err)
	}
	user.Roles = roles
	return nil
}
