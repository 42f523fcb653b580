package item

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type Service struct {
	items    repository.ItemRepository
	logger   *logger.Logger
	validate *validator.Validate
}

func NewService(items repository.ItemRepository, logger *logger.Logger) *Service {
	return &Service{
		items:    items,
		logger:   logger,
		validate: validator.New(),
	}
}

type CreateItemRequest struct {
	OwnerID     uint   `json:"ownerId" validate:"required"`
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
	// ImagePath is filled in by the gateway after it stores the uploaded
	// file; clients never set it directly.
	ImagePath string `json:"imagePath"`
}

type UpdateItemRequest struct {
	ID          uint   `json:"id" validate:"required"`
	Title       string `json:"title" validate:"omitempty,min=2,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
	ImagePath   string `json:"imagePath"`
}

func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*model.Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid item data: %v", err)
	}
	item := &model.Item{
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImagePath:   req.ImagePath,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("item created", zap.Uint("itemId", item.ID), zap.Uint("ownerId", item.OwnerID))
	return item, nil
}

func (s *Service) GetItem(ctx context.Context, id uint) (*model.Item, error) {
	return s.items.GetByID(ctx, id)
}

func (s *Service) GetItemsByUser(ctx context.Context, ownerID uint) ([]model.Item, error) {
	return s.items.ListByOwner(ctx, ownerID)
}

func (s *Service) UpdateItem(ctx context.Context, req UpdateItemRequest) (*model.Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid item data: %v", err)
	}
	item, err := s.items.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Title != "" {
		item.Title = req.Title
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.ImagePath != "" {
		item.ImagePath = req.ImagePath
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id uint) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("item deleted", zap.Uint("itemId", id))
	return nil
}
