package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/identity"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/auth"
)

// sessionRevocationTTL is how long a user-wide token invalidation entry
// is kept. It must outlive the longest-lived refresh token.
const sessionRevocationTTL = 168 * time.Hour

// UserService handles operator account management. All operations are
// admin-only; the HTTP layer enforces that before calling in.
type UserService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, blacklist auth.TokenBlacklist, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Create creates a new operator account
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this username already exists")
	}

	user, err := identity.NewUser(req.Username, req.Password, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}
	user.DisplayName = req.DisplayName

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	response := ToUserResponse(user)
	return &response, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// List retrieves users with filtering and pagination
func (s *UserService) List(ctx context.Context, filter UserListFilter) ([]UserResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.Search = filter.Search
	domainFilter.OrderBy = "username"
	domainFilter.OrderDir = "asc"

	users, err := s.userRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.userRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = ToUserResponse(&users[i])
	}
	return responses, total, nil
}

// Update updates an operator account. Deactivation revokes every
// outstanding session.
func (s *UserService) Update(ctx context.Context, actor identity.Actor, userID uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		role := identity.Role(*req.Role)
		if actor.UserID == user.ID && role != identity.RoleAdmin {
			return nil, shared.NewDomainError("INVALID_STATE", "Cannot demote your own account")
		}
		user.Role = role
	}

	deactivated := false
	if req.Active != nil {
		if actor.UserID == user.ID && !*req.Active {
			return nil, shared.NewDomainError("INVALID_STATE", "Cannot deactivate your own account")
		}
		deactivated = user.Active && !*req.Active
		user.Active = *req.Active
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	if deactivated {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), sessionRevocationTTL); err != nil {
			s.logger.Error("Failed to revoke sessions after deactivation", zap.Error(err))
		}
	}

	response := ToUserResponse(user)
	return &response, nil
}

// ResetPassword sets a new password for an operator and revokes their sessions
func (s *UserService) ResetPassword(ctx context.Context, userID uuid.UUID, req ResetPasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.ChangePassword(req.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), sessionRevocationTTL); err != nil {
		s.logger.Error("Failed to revoke sessions after password reset", zap.Error(err))
	}

	s.logger.Info("User password reset", zap.String("user_id", userID.String()))
	return nil
}

// Delete removes an operator account. An admin cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor identity.Actor, userID uuid.UUID) error {
	if actor.UserID == userID {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete your own account")
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}

	return s.userRepo.Delete(ctx, userID)
}
