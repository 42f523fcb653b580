package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
}

type FriendRequestRepository interface {
	Create(ctx context.Context, req *model.FriendRequest) error
	GetByID(ctx context.Context, id uint) (*model.FriendRequest, error)
	ListForUser(ctx context.Context, userID uint) ([]model.FriendRequest, error)
	// Accept creates the friendship in both directions and removes the
	// request, all inside one database transaction. A friendship that
	// already exists fails with a conflict.
	Accept(ctx context.Context, requestID uint) error
	Delete(ctx context.Context, id uint) error
	ListFriends(ctx context.Context, userID uint) ([]model.User, error)
}
