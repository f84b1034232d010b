package services

import (
	"context"
	"errors"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/adapters/persistence/repositories"
	"medask-forum/internal/core/domain"
	"medask-forum/internal/pkg/password"
)

// User service errors
var (
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrOldPasswordWrong     = errors.New("old password is incorrect")
	ErrCannotDeleteSelf     = errors.New("cannot deactivate your own account")
	ErrCannotChangeOwnRoles = errors.New("cannot change your own roles")
	ErrInvalidRole          = errors.New("invalid role")
)

// UserService handles account management business logic
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Email    *string  `json:"email"`
	Roles    []string `json:"roles"`
	IsActive *bool    `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email *string `json:"email"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	users, total, err := s.userRepo.List(ctx, offset, input.Limit)
	if err != nil {
		return nil, wrapStore(err)
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      userResponses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// ListExperts lists all active expert accounts
func (s *UserService) ListExperts(ctx context.Context) ([]*models.UserResponse, error) {
	experts, err := s.userRepo.ListExperts(ctx)
	if err != nil {
		return nil, wrapStore(err)
	}

	responses := make([]*models.UserResponse, len(experts))
	for i, e := range experts {
		responses[i] = e.ToResponse()
	}
	return responses, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore(err)
	}
	return user.ToResponse(), nil
}

// UpdateUserByAdmin updates a user by admin. Roles are additive labels;
// the whole set is replaced at once.
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id uint, adminID uint, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore(err)
	}

	// An admin locking themselves out of ADMIN is an easy mistake
	if id == adminID && input.Roles != nil {
		return nil, ErrCannotChangeOwnRoles
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, wrapStore(err)
		}
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}

	if input.Roles != nil {
		roles := make([]domain.Role, 0, len(input.Roles))
		for _, r := range input.Roles {
			role := domain.Role(r)
			switch role {
			case domain.RoleParticipant, domain.RoleExpert, domain.RoleAdmin:
				roles = append(roles, role)
			default:
				return nil, ErrInvalidRole
			}
		}
		if len(roles) == 0 {
			return nil, ErrInvalidRole
		}
		user.SetRoles(roles)
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, wrapStore(err)
	}

	return user.ToResponse(), nil
}

// DeactivateUser deactivates a user account (soft delete)
func (s *UserService) DeactivateUser(ctx context.Context, id uint, adminID uint) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return wrapStore(err)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return wrapStore(err)
	}
	return nil
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore(err)
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, wrapStore(err)
		}
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, wrapStore(err)
	}

	return user.ToResponse(), nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return wrapStore(err)
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	if !password.Validate(input.NewPassword) {
		return ErrWeakPassword
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	if err := s.userRepo.Update(ctx, user); err != nil {
		return wrapStore(err)
	}
	return nil
}
