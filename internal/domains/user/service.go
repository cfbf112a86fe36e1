package user

import "context"

// Service is the auth business logic contract.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}
