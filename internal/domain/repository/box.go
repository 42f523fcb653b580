package repository

import (
	"context"
	"time"

	"github.com/swapspot/swapspot/internal/domain/model"
)

type BoxRepository interface {
	Create(ctx context.Context, box *model.Box) error
	GetByExchangeID(ctx context.Context, exchangeID uint) (*model.Box, error)
	// SetCode stores the hashed open-code and its expiry on the box keyed
	// by exchange id, overwriting any earlier code.
	SetCode(ctx context.Context, exchangeID uint, codeHash string, expiry time.Time) error
	Update(ctx context.Context, box *model.Box) error
	DeleteByExchangeID(ctx context.Context, exchangeID uint) error
	// Open loads the box under a row lock, runs verify against the loaded
	// state, and persists the mutation verify applied. Two concurrent
	// opens serialize here so only the first can pass verification.
	Open(ctx context.Context, exchangeID uint, verify func(box *model.Box) error) (*model.Box, error)
}
