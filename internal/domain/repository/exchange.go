package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
)

type ExchangeRepository interface {
	Create(ctx context.Context, exchange *model.Exchange) error
	GetByID(ctx context.Context, id uint) (*model.Exchange, error)
	Update(ctx context.Context, exchange *model.Exchange) error
	SetState(ctx context.Context, id uint, state string) error
	Delete(ctx context.Context, id uint) error
}
