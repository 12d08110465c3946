package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"manpower/internal/auth"
	"manpower/internal/cache"
	apperrors "manpower/internal/errors"
	"manpower/internal/model"
	"manpower/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes user administration and lookups.
type UserService interface {
	CreateUser(ctx context.Context, username, name, password string, role model.Role) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ChangeOwnPassword(ctx context.Context, id, currentPassword, newPassword string) error
	SetPassword(ctx context.Context, id, newPassword string) error
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo       repository.UserRepository
	cache      *cache.Client
	hasher     *auth.PasswordHasher
	tokenStore auth.TokenStoreInterface
	now        func() time.Time
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client, hasher *auth.PasswordHasher, tokenStore auth.TokenStoreInterface) UserService {
	return &userService{
		repo:       repo,
		cache:      cache,
		hasher:     hasher,
		tokenStore: tokenStore,
		now:        time.Now,
	}
}

func (s *userService) cacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

// CreateUser adds a MANAGER or ENGINEER account.
func (s *userService) CreateUser(ctx context.Context, username, name, password string, role model.Role) (*model.User, error) {
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return nil, apperrors.ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user, served from cache when possible.
func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// ChangeOwnPassword replaces the caller's password after checking the current one.
func (s *userService) ChangeOwnPassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperrors.ErrIncorrectPassword
	}
	return s.SetPassword(ctx, id, newPassword)
}

// SetPassword force-sets a password and revokes tokens issued before it.
func (s *userService) SetPassword(ctx context.Context, id, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return s.tokenStore.MarkPasswordChanged(ctx, id, s.now())
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
