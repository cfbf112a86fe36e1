package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"grimoire-backend/internal/domains/user"
	"grimoire-backend/pkg/jwt"
)

// bcryptCost keeps hashing slow enough to resist offline guessing without
// making signup noticeably laggy.
const bcryptCost = 10

type userService struct {
	repo       user.Repository
	jwtManager *jwt.Manager
}

// NewUserService creates the auth service. The token manager arrives through
// the constructor; nothing here reads global signing state.
func NewUserService(repo user.Repository, jwtManager *jwt.Manager) user.Service {
	return &userService{
		repo:       repo,
		jwtManager: jwtManager,
	}
}

// Signup validates the credentials, hashes the password and persists the
// account. The plaintext password is never stored or logged.
func (s *userService) Signup(ctx context.Context, req user.SignupRequest) (*user.UserDTO, error) {
	// Handler validates too, but the service is the authoritative gate.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	newUser := &user.User{
		Email:        email,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	dto := newUser.ToDTO()
	return &dto, nil
}

// Login authenticates the credentials and issues a 24-hour token. Unknown
// email and wrong password both return ErrInvalidCredentials.
func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(u.ID)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &user.LoginResponse{
		UserID: u.ID,
		Token:  token,
	}, nil
}
