package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
)

type CenterRepository interface {
	Create(ctx context.Context, center *model.Center) error
	GetByID(ctx context.Context, id uint) (*model.Center, error)
	List(ctx context.Context) ([]model.Center, error)
	Update(ctx context.Context, center *model.Center) error
	Delete(ctx context.Context, id uint) error
}

type FrontRepository interface {
	Create(ctx context.Context, front *model.Front) error
	// GetByID loads the front with its owning center preloaded.
	GetByID(ctx context.Context, id uint) (*model.Front, error)
	ListByCenter(ctx context.Context, centerID uint) ([]model.Front, error)
	Update(ctx context.Context, front *model.Front) error
	Delete(ctx context.Context, id uint) error
	// Reserve commits one box slot; fails with a conflict when the front
	// is at capacity. Release returns a slot.
	Reserve(ctx context.Context, frontID uint) error
	Release(ctx context.Context, frontID uint) error
}
