package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"manpower/internal/auth"
	apperrors "manpower/internal/errors"
	"manpower/internal/model"
	"manpower/internal/repository"
)

const bootstrapAdminName = "Administrator"

var (
	// ErrUserGone is returned when a token refers to a deleted user.
	ErrUserGone = errors.New("user no longer exists, please login again")
	// ErrRoleChanged is returned when the token role differs from the stored role.
	ErrRoleChanged = errors.New("user role has changed, please login again")
	// ErrCredentialsChanged is returned when the token username differs from the stored one.
	ErrCredentialsChanged = errors.New("user credentials have changed, please login again")
	// ErrPasswordChanged is returned for tokens issued before a password change.
	ErrPasswordChanged = errors.New("password has been changed, please login again")
)

// AdminCredential is the configured bootstrap admin login.
type AdminCredential struct {
	Username string
	Password string
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, principal *auth.Principal, err error)
	// Authenticate confirms that the identity inside verified claims still
	// matches the store.
	Authenticate(ctx context.Context, claims *auth.Claims) (*auth.Principal, error)
}

type authService struct {
	userRepo   repository.UserRepository
	users      UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	hasher     *auth.PasswordHasher
	admin      AdminCredential
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	users UserService,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	hasher *auth.PasswordHasher,
	admin AdminCredential,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		hasher:     hasher,
		admin:      admin,
	}
}

func (s *authService) bootstrapAdmin() auth.Principal {
	return auth.Principal{
		ID:       auth.BootstrapAdminID,
		Username: s.admin.Username,
		Name:     bootstrapAdminName,
		Role:     model.RoleAdmin,
	}
}

// Login exchanges a username and password for a bearer token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *auth.Principal, error) {
	if s.admin.Username != "" && username == s.admin.Username {
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) != 1 {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		p := s.bootstrapAdmin()
		return s.issue(p)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	return s.issue(auth.PrincipalFromUser(user))
}

func (s *authService) issue(p auth.Principal) (string, *auth.Principal, error) {
	token, err := s.jwtService.GenerateToken(p)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, &p, nil
}

func (s *authService) Authenticate(ctx context.Context, claims *auth.Claims) (*auth.Principal, error) {
	if claims.UserID == auth.BootstrapAdminID {
		admin := s.bootstrapAdmin()
		if s.admin.Username == "" || claims.Username != admin.Username || claims.Role != model.RoleAdmin {
			return nil, ErrCredentialsChanged
		}
		return &admin, nil
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, ErrUserGone
		}
		return nil, err
	}
	if user.Role != claims.Role {
		return nil, ErrRoleChanged
	}
	if user.Username != claims.Username {
		return nil, ErrCredentialsChanged
	}

	changedAt, err := s.tokenStore.PasswordChangedAt(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("read revocation: %w", err)
	}
	if !changedAt.IsZero() && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(changedAt) {
		return nil, ErrPasswordChanged
	}

	p := auth.PrincipalFromUser(user)
	return &p, nil
}
