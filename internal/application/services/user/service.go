package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	users    repository.UserRepository
	requests repository.FriendRequestRepository
	registry Notifier
	logger   *logger.Logger
	validate *validator.Validate
}

// Notifier is the slice of the client registry the user service needs: the
// fire-and-forget path to the notifications service.
type Notifier interface {
	Notify(cmd string, payload any)
}

func NewService(users repository.UserRepository, requests repository.FriendRequestRepository, notifier Notifier, logger *logger.Logger) *Service {
	return &Service{
		users:    users,
		requests: requests,
		registry: notifier,
		logger:   logger,
		validate: validator.New(),
	}
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	City     string `json:"city" validate:"max=100"`
}

type UpdateUserRequest struct {
	ID   uint   `json:"id" validate:"required"`
	Name string `json:"name" validate:"omitempty,min=2,max=100"`
	City string `json:"city" validate:"max=100"`
}

type FriendRequestInput struct {
	FromUserID uint `json:"fromUserId" validate:"required"`
	ToUserID   uint `json:"toUserId" validate:"required"`
}

type AcceptFriendRequestInput struct {
	RequestID uint `json:"requestId" validate:"required"`
}

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid user data: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		City:         req.City,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, err
	}

	s.logger.Info("user created", zap.Uint("userID", user.ID), zap.String("email", user.Email))
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, req UpdateUserRequest) (*model.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid user data: %v", err)
	}

	user, err := s.users.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.City != "" {
		user.City = req.City
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user", zap.Error(err), zap.Uint("userID", req.ID))
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) SendFriendRequest(ctx context.Context, req FriendRequestInput) (*model.FriendRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid friend request: %v", err)
	}
	if req.FromUserID == req.ToUserID {
		return nil, apperr.BadRequest("cannot send a friend request to yourself")
	}

	if _, err := s.users.GetByID(ctx, req.ToUserID); err != nil {
		return nil, err
	}

	request := &model.FriendRequest{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.registry.Notify("createNotification", map[string]any{
		"userId": req.ToUserID,
		"kind":   "friend_request",
		"text":   "You have a new friend request",
	})

	return request, nil
}

// AcceptFriendRequest commits the friendship atomically; the repository owns
// the transaction boundary.
func (s *Service) AcceptFriendRequest(ctx context.Context, req AcceptFriendRequestInput) error {
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest("invalid accept request: %v", err)
	}

	request, err := s.requests.GetByID(ctx, req.RequestID)
	if err != nil {
		return err
	}

	if err := s.requests.Accept(ctx, req.RequestID); err != nil {
		s.logger.Error("failed to accept friend request", zap.Error(err), zap.Uint("requestID", req.RequestID))
		return err
	}

	s.registry.Notify("createNotification", map[string]any{
		"userId": request.FromUserID,
		"kind":   "friend_accepted",
		"text":   "Your friend request was accepted",
	})

	s.logger.Info("friend request accepted",
		zap.Uint("requestID", req.RequestID),
		zap.Uint("fromUserID", request.FromUserID),
		zap.Uint("toUserID", request.ToUserID),
	)
	return nil
}

func (s *Service) ListFriends(ctx context.Context, userID uint) ([]model.User, error) {
	return s.requests.ListFriends(ctx, userID)
}

func (s *Service) ListFriendRequests(ctx context.Context, userID uint) ([]model.FriendRequest, error) {
	return s.requests.ListForUser(ctx, userID)
}
