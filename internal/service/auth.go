package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var bcryptCost = bcrypt.DefaultCost

// dummyHash is compared against when the account does not exist, so an
// unknown login costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return h
})

type AuthService struct {
	store repository.Store
	log   *slog.Logger
}

func NewAuthService(store repository.Store, log *slog.Logger) *AuthService {
	return &AuthService{store: store, log: log}
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest, ip string) (*model.User, error) {
	email := clean(req.Email, 0)
	problems := validateEmail(email)
	problems = append(problems, validatePassword(req.Password)...)
	if len(problems) > 0 {
		return nil, newValidationError(problems...)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashed),
		RegisterIP:   truncate(ip, maxIPLen),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*model.User, error) {
	email := clean(req.Email, 0)
	if email == "" || req.Password == "" {
		return nil, newValidationError("email and password are required")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RecordLogin writes the login-history row. Failures are logged only; a
// successful login is never turned into an error by its audit trail.
func (s *AuthService) RecordLogin(ctx context.Context, userID uuid.UUID, ip, userAgent string) {
	rec := &model.LoginRecord{
		UserID:    userID,
		IP:        truncate(ip, maxIPLen),
		UserAgent: truncate(userAgent, maxUserAgentLen),
	}
	if err := s.store.History().RecordLogin(ctx, rec); err != nil {
		s.log.Error("record login", "user_id", userID, "error", err)
	}
}

func (s *AuthService) AdminLogin(ctx context.Context, req dto.AdminLoginRequest) (*model.AdminUser, error) {
	username := clean(req.Username, 0)
	if username == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.store.Admins().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// CreateAdmin provisions an admin account. Admin passwords follow the same
// policy as storefront passwords.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*model.AdminUser, error) {
	username = clean(username, 0)
	var problems []string
	switch {
	case username == "":
		problems = append(problems, "username is required")
	case len([]rune(username)) > maxUsernameLen:
		problems = append(problems, "username must be at most 100 characters")
	}
	problems = append(problems, validatePassword(password)...)
	if len(problems) > 0 {
		return nil, newValidationError(problems...)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &model.AdminUser{Username: username, PasswordHash: string(hashed)}
	if err := s.store.Admins().Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAdminAlreadyExists
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}
