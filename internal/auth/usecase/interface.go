package usecase

import (
	authdomain "mailflow-backend/internal/auth/domain"
	authdto "mailflow-backend/internal/auth/dto"
)

// AuthUsecase defines the interface for authentication use cases
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)
}
