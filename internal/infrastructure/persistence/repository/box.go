package repository

import (
	"context"
	"errors"
	"time"

	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type boxRepository struct {
	*BaseRepository[model.Box]
	database *gorm.DB
}

func NewBoxRepository(db *gorm.DB) repository.BoxRepository {
	return &boxRepository{
		BaseRepository: NewBaseRepository[model.Box](db),
		database:       db,
	}
}

func (r *boxRepository) GetByExchangeID(ctx context.Context, exchangeID uint) (*model.Box, error) {
	var box model.Box
	err := r.database.WithContext(ctx).
		Where("exchange_id = ?", exchangeID).
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("box not found")
		}
		return nil, err
	}
	return &box, nil
}

func (r *boxRepository) SetCode(ctx context.Context, exchangeID uint, codeHash string, expiry time.Time) error {
	tx := r.database.WithContext(ctx).
		Model(&model.Box{}).
		Where("exchange_id = ?", exchangeID).
		Updates(map[string]any{
			"open_code_hash":   codeHash,
			"open_code_expiry": expiry,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("box not found")
	}
	return nil
}

func (r *boxRepository) DeleteByExchangeID(ctx context.Context, exchangeID uint) error {
	tx := r.database.WithContext(ctx).
		Where("exchange_id = ?", exchangeID).
		Delete(&model.Box{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("box not found")
	}
	return nil
}

// Open serializes concurrent open attempts on the same box behind a row
// lock: the second attempt sees the already-mutated state and fails inside
// verify.
func (r *boxRepository) Open(ctx context.Context, exchangeID uint, verify func(box *model.Box) error) (*model.Box, error) {
	var box model.Box

	err := r.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("exchange_id = ?", exchangeID).
			First(&box).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("box not found")
			}
			return err
		}

		if err := verify(&box); err != nil {
			return err
		}

		return tx.Save(&box).Error
	})
	if err != nil {
		return nil, err
	}
	return &box, nil
}
