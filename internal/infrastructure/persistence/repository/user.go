package repository

import (
	"context"
	"errors"

	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"gorm.io/gorm"
)

type userRepository struct {
	*BaseRepository[model.User]
	database *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository[model.User](db),
		database:       db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	var count int64
	if err := r.database.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", user.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("email %s is already registered", user.Email)
	}
	return r.BaseRepository.Create(ctx, user)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.database.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user with email %s not found", email)
		}
		return nil, err
	}
	return &user, nil
}

type friendRequestRepository struct {
	*BaseRepository[model.FriendRequest]
	database *gorm.DB
}

func NewFriendRequestRepository(db *gorm.DB) repository.FriendRequestRepository {
	return &friendRequestRepository{
		BaseRepository: NewBaseRepository[model.FriendRequest](db),
		database:       db,
	}
}

func (r *friendRequestRepository) ListForUser(ctx context.Context, userID uint) ([]model.FriendRequest, error) {
	var requests []model.FriendRequest
	err := r.database.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at desc").
		Find(&requests).Error
	return requests, err
}

// Accept is the one multi-step flow that needs a transaction boundary: both
// friendship rows and the request deletion commit or roll back together.
func (r *friendRequestRepository) Accept(ctx context.Context, requestID uint) error {
	return r.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.FriendRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("friend request %d not found", requestID)
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.Friendship{}).
			Where("user_id = ? AND friend_id = ?", req.FromUserID, req.ToUserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("users %d and %d are already friends", req.FromUserID, req.ToUserID)
		}

		pair := []model.Friendship{
			{UserID: req.FromUserID, FriendID: req.ToUserID},
			{UserID: req.ToUserID, FriendID: req.FromUserID},
		}
		if err := tx.Create(&pair).Error; err != nil {
			return err
		}

		return tx.Delete(&model.FriendRequest{}, requestID).Error
	})
}

func (r *friendRequestRepository) ListFriends(ctx context.Context, userID uint) ([]model.User, error) {
	var users []model.User
	err := r.database.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Find(&users).Error
	return users, err
}
