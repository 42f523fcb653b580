package auth

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/sign"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	users    repository.UserRepository
	jwt      *sign.JWTManager
	logger   *logger.Logger
	validate *validator.Validate
}

func NewService(users repository.UserRepository, jwt *sign.JWTManager, logger *logger.Logger) *Service {
	return &Service{
		users:    users,
		jwt:      jwt,
		logger:   logger,
		validate: validator.New(),
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *Service) RegisterUser(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid registration data: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, err
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Uint("userID", user.ID), zap.String("email", user.Email))
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid login data: %v", err)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Code == apperr.CodeNotFound {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// CheckToken reports token validity as a bare boolean; callers treat any
// failure as "not valid".
func (s *Service) CheckToken(ctx context.Context, req TokenRequest) (bool, error) {
	if req.Token == "" {
		return false, nil
	}
	if _, err := s.jwt.Verify(req.Token); err != nil {
		return false, nil
	}
	return true, nil
}
