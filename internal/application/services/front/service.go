package front

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
	fronts   repository.FrontRepository
	logger   *logger.Logger
	validate *validator.Validate
}

func NewService(fronts repository.FrontRepository, logger *logger.Logger) *Service {
	return &Service{
		fronts:   fronts,
		logger:   logger,
		validate: validator.New(),
	}
}

type CreateFrontRequest struct {
	CenterID uint   `json:"centerId" validate:"required"`
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

type UpdateFrontRequest struct {
	ID       uint   `json:"id" validate:"required"`
	Name     string `json:"name" validate:"omitempty,min=2,max=200"`
	Capacity int    `json:"capacity" validate:"omitempty,min=1"`
}

type SlotRequest struct {
	FrontID uint `json:"frontId" validate:"required"`
}

func (s *Service) CreateFront(ctx context.Context, req CreateFrontRequest) (*model.Front, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid front data: %v", err)
	}
	front := &model.Front{CenterID: req.CenterID, Name: req.Name, Capacity: req.Capacity}
	if err := s.fronts.Create(ctx, front); err != nil {
		return nil, err
	}
	s.logger.Info("front created",
		zap.Uint("frontId", front.ID),
		zap.Uint("centerId", front.CenterID),
		zap.Int("capacity", front.Capacity))
	return front, nil
}

func (s *Service) GetFront(ctx context.Context, id uint) (*model.Front, error) {
	return s.fronts.GetByID(ctx, id)
}

func (s *Service) ListFronts(ctx context.Context, centerID uint) ([]model.Front, error) {
	return s.fronts.ListByCenter(ctx, centerID)
}

// GetCenter resolves the center that owns a front. The box service uses it
// when reclaiming an unused box.
func (s *Service) GetCenter(ctx context.Context, frontID uint) (*model.Center, error) {
	front, err := s.fronts.GetByID(ctx, frontID)
	if err != nil {
		return nil, err
	}
	return &front.Center, nil
}

func (s *Service) UpdateFront(ctx context.Context, req UpdateFrontRequest) (*model.Front, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid front data: %v", err)
	}
	front, err := s.fronts.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		front.Name = req.Name
	}
	if req.Capacity > 0 {
		if req.Capacity < front.Reserved {
			return nil, apperr.Conflict("capacity %d below %d reserved slots", req.Capacity, front.Reserved)
		}
		front.Capacity = req.Capacity
	}
	if err := s.fronts.Update(ctx, front); err != nil {
		return nil, err
	}
	return front, nil
}

func (s *Service) DeleteFront(ctx context.Context, id uint) error {
	front, err := s.fronts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if front.Reserved > 0 {
		return apperr.Conflict("front %d still has %d reserved slots", id, front.Reserved)
	}
	return s.fronts.Delete(ctx, id)
}

// ReserveSlot commits one box slot on the front. The exchange service calls
// this when a front is picked for an exchange.
func (s *Service) ReserveSlot(ctx context.Context, req SlotRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest("invalid slot request: %v", err)
	}
	if err := s.fronts.Reserve(ctx, req.FrontID); err != nil {
		return err
	}
	s.logger.Info("slot reserved", zap.Uint("frontId", req.FrontID))
	return nil
}

func (s *Service) ReleaseSlot(ctx context.Context, req SlotRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest("invalid slot request: %v", err)
	}
	if err := s.fronts.Release(ctx, req.FrontID); err != nil {
		return err
	}
	s.logger.Info("slot released", zap.Uint("frontId", req.FrontID))
	return nil
}
