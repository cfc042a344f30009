package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/identity"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/auth"
	"github.com/pos/backend/internal/infrastructure/config"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func newTestAuthService(userRepo identity.UserRepository) *AuthService {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars!!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "pos-test",
		MaxRefreshCount:        3,
	})
	return NewAuthService(userRepo, jwtService, auth.NewInMemoryTokenBlacklist(), zap.NewNop())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthServiceLogin(t *testing.T) {
	t.Run("issues tokens for valid credentials", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		user, err := identity.NewUser("cashier1", "s3cret-pass", identity.RoleCashier)
		require.NoError(t, err)

		userRepo.On("FindByUsername", mock.Anything, "cashier1").Return(user, nil)
		userRepo.On("Save", mock.Anything, user).Return(nil)

		resp, err := service.Login(context.Background(), LoginRequest{
			Username: "cashier1",
			Password: "s3cret-pass",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "cashier1", resp.User.Username)
		assert.Equal(t, "cashier", resp.User.Role)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		user, err := identity.NewUser("cashier1", "s3cret-pass", identity.RoleCashier)
		require.NoError(t, err)

		userRepo.On("FindByUsername", mock.Anything, "cashier1").Return(user, nil)

		_, err = service.Login(context.Background(), LoginRequest{
			Username: "cashier1",
			Password: "wrong-password",
		})
		assertCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("rejects unknown username with the same error", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		userRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

		_, err := service.Login(context.Background(), LoginRequest{
			Username: "ghost",
			Password: "whatever123",
		})
		assertCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("rejects deactivated account", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		user, err := identity.NewUser("cashier1", "s3cret-pass", identity.RoleCashier)
		require.NoError(t, err)
		user.Active = false

		userRepo.On("FindByUsername", mock.Anything, "cashier1").Return(user, nil)

		_, err = service.Login(context.Background(), LoginRequest{
			Username: "cashier1",
			Password: "s3cret-pass",
		})
		assertCode(t, err, "ACCOUNT_DEACTIVATED")
	})
}

func TestAuthServiceRefresh(t *testing.T) {
	t.Run("rotates the token pair", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		user, err := identity.NewUser("cashier1", "s3cret-pass", identity.RoleCashier)
		require.NoError(t, err)

		userRepo.On("FindByUsername", mock.Anything, "cashier1").Return(user, nil)
		userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		userRepo.On("Save", mock.Anything, user).Return(nil)

		login, err := service.Login(context.Background(), LoginRequest{
			Username: "cashier1",
			Password: "s3cret-pass",
		})
		require.NoError(t, err)

		refreshed, err := service.Refresh(context.Background(), RefreshRequest{
			RefreshToken: login.RefreshToken,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	})

	t.Run("rejects a garbage refresh token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		_, err := service.Refresh(context.Background(), RefreshRequest{
			RefreshToken: "not-a-token",
		})
		assertCode(t, err, "TOKEN_INVALID")
	})

	t.Run("rejects refresh after password change revokes sessions", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		user, err := identity.NewUser("cashier1", "s3cret-pass", identity.RoleCashier)
		require.NoError(t, err)

		userRepo.On("FindByUsername", mock.Anything, "cashier1").Return(user, nil)
		userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		userRepo.On("Save", mock.Anything, user).Return(nil)

		login, err := service.Login(context.Background(), LoginRequest{
			Username: "cashier1",
			Password: "s3cret-pass",
		})
		require.NoError(t, err)

		actor := identity.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
		require.NoError(t, service.ChangePassword(context.Background(), actor, ChangePasswordRequest{
			OldPassword: "s3cret-pass",
			NewPassword: "even-m0re-secret",
		}))

		_, err = service.Refresh(context.Background(), RefreshRequest{
			RefreshToken: login.RefreshToken,
		})
		assertCode(t, err, "TOKEN_REVOKED")
	})
}

func TestAuthServiceChangePassword(t *testing.T) {
	t.Run("requires the current password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		user, err := identity.NewUser("cashier1", "s3cret-pass", identity.RoleCashier)
		require.NoError(t, err)

		userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		actor := identity.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
		err = service.ChangePassword(context.Background(), actor, ChangePasswordRequest{
			OldPassword: "wrong-password",
			NewPassword: "brand-new-pass",
		})
		assertCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("replaces the password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newTestAuthService(userRepo)

		user, err := identity.NewUser("cashier1", "s3cret-pass", identity.RoleCashier)
		require.NoError(t, err)

		userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		userRepo.On("Save", mock.Anything, user).Return(nil)

		actor := identity.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
		require.NoError(t, service.ChangePassword(context.Background(), actor, ChangePasswordRequest{
			OldPassword: "s3cret-pass",
			NewPassword: "brand-new-pass",
		}))

		assert.True(t, user.VerifyPassword("brand-new-pass"))
		assert.False(t, user.VerifyPassword("s3cret-pass"))
	})
}

func TestUserServiceGuards(t *testing.T) {
	newUserService := func(userRepo identity.UserRepository) *UserService {
		return NewUserService(userRepo, auth.NewInMemoryTokenBlacklist(), zap.NewNop())
	}

	t.Run("rejects duplicate usernames", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newUserService(userRepo)

		userRepo.On("ExistsByUsername", mock.Anything, "cashier1").Return(true, nil)

		_, err := service.Create(context.Background(), CreateUserRequest{
			Username: "cashier1",
			Password: "s3cret-pass",
			Role:     "cashier",
		})
		assertCode(t, err, "ALREADY_EXISTS")
	})

	t.Run("admin cannot delete their own account", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newUserService(userRepo)

		adminID := uuid.New()
		actor := identity.Actor{UserID: adminID, Username: "admin", Role: identity.RoleAdmin}

		err := service.Delete(context.Background(), actor, adminID)
		assertCode(t, err, "INVALID_STATE")
	})

	t.Run("admin cannot deactivate their own account", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newUserService(userRepo)

		admin, err := identity.NewUser("admin", "s3cret-pass", identity.RoleAdmin)
		require.NoError(t, err)

		userRepo.On("FindByID", mock.Anything, admin.ID).Return(admin, nil)

		actor := identity.Actor{UserID: admin.ID, Username: "admin", Role: identity.RoleAdmin}
		inactive := false
		_, err = service.Update(context.Background(), actor, admin.ID, UpdateUserRequest{Active: &inactive})
		assertCode(t, err, "INVALID_STATE")
	})
}
