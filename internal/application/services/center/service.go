package center

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
	centers  repository.CenterRepository
	logger   *logger.Logger
	validate *validator.Validate
}

func NewService(centers repository.CenterRepository, logger *logger.Logger) *Service {
	return &Service{
		centers:  centers,
		logger:   logger,
		validate: validator.New(),
	}
}

type CreateCenterRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	City    string `json:"city" validate:"required,max=100"`
	Address string `json:"address" validate:"max=300"`
}

type UpdateCenterRequest struct {
	ID      uint   `json:"id" validate:"required"`
	Name    string `json:"name" validate:"omitempty,min=2,max=200"`
	City    string `json:"city" validate:"max=100"`
	Address string `json:"address" validate:"max=300"`
}

func (s *Service) CreateCenter(ctx context.Context, req CreateCenterRequest) (*model.Center, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid center data: %v", err)
	}
	center := &model.Center{Name: req.Name, City: req.City, Address: req.Address}
	if err := s.centers.Create(ctx, center); err != nil {
		return nil, err
	}
	s.logger.Info("center created", zap.Uint("centerId", center.ID), zap.String("city", center.City))
	return center, nil
}

func (s *Service) GetCenter(ctx context.Context, id uint) (*model.Center, error) {
	return s.centers.GetByID(ctx, id)
}

func (s *Service) ListCenters(ctx context.Context) ([]model.Center, error) {
	return s.centers.List(ctx)
}

func (s *Service) UpdateCenter(ctx context.Context, req UpdateCenterRequest) (*model.Center, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid center data: %v", err)
	}
	center, err := s.centers.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		center.Name = req.Name
	}
	if req.City != "" {
		center.City = req.City
	}
	if req.Address != "" {
		center.Address = req.Address
	}
	if err := s.centers.Update(ctx, center); err != nil {
		return nil, err
	}
	return center, nil
}

func (s *Service) DeleteCenter(ctx context.Context, id uint) error {
	return s.centers.Delete(ctx, id)
}
