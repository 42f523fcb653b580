package exchange

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Caller is the slice of the client registry the exchange service needs:
// slot bookkeeping calls to the front service.
type Caller interface {
	Call(ctx context.Context, cmd string, payload any, out any) error
	Notify(cmd string, payload any)
}

type Service struct {
	exchanges repository.ExchangeRepository
	fronts    Caller
	logger    *logger.Logger
	validate  *validator.Validate
}

func NewService(exchanges repository.ExchangeRepository, fronts Caller, logger *logger.Logger) *Service {
	return &Service{
		exchanges: exchanges,
		fronts:    fronts,
		logger:    logger,
		validate:  validator.New(),
	}
}

type CreateExchangeRequest struct {
	InitiatorID uint `json:"initiatorId" validate:"required"`
	ResponderID uint `json:"responderId" validate:"required,nefield=InitiatorID"`
	ItemID      uint `json:"itemId" validate:"required"`
}

type ReserveFrontRequest struct {
	ExchangeID uint `json:"exchangeId" validate:"required"`
	FrontID    uint `json:"frontId" validate:"required"`
}

type ReleaseReservationRequest struct {
	ExchangeID uint `json:"exchangeId" validate:"required"`
}

type SetStateRequest struct {
	ExchangeID uint   `json:"exchangeId" validate:"required"`
	State      string `json:"state" validate:"required"`
}

// validTransitions is the full state graph. Every transition not listed is a
// conflict.
var validTransitions = map[string][]string{
	model.ExchangeStateProposed: {model.ExchangeStateAccepted, model.ExchangeStateCancelled},
	model.ExchangeStateAccepted: {model.ExchangeStateInBox, model.ExchangeStateCancelled},
	model.ExchangeStateInBox:    {model.ExchangeStateCompleted, model.ExchangeStateCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) CreateExchange(ctx context.Context, req CreateExchangeRequest) (*model.Exchange, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid exchange data: %v", err)
	}
	exchange := &model.Exchange{
		InitiatorID: req.InitiatorID,
		ResponderID: req.ResponderID,
		ItemID:      req.ItemID,
		State:       model.ExchangeStateProposed,
	}
	if err := s.exchanges.Create(ctx, exchange); err != nil {
		return nil, err
	}
	s.logger.Info("exchange created",
		zap.Uint("exchangeId", exchange.ID),
		zap.Uint("initiatorId", exchange.InitiatorID),
		zap.Uint("responderId", exchange.ResponderID))
	return exchange, nil
}

func (s *Service) GetExchange(ctx context.Context, id uint) (*model.Exchange, error) {
	return s.exchanges.GetByID(ctx, id)
}

// ReserveFront commits one slot on the chosen front and pins the exchange to
// it. The slot stays reserved until the box is opened in time or reclaimed.
func (s *Service) ReserveFront(ctx context.Context, req ReserveFrontRequest) (*model.Exchange, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid reservation: %v", err)
	}
	exchange, err := s.exchanges.GetByID(ctx, req.ExchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.FrontID != nil {
		return nil, apperr.Conflict("exchange %d already reserved front %d", exchange.ID, *exchange.FrontID)
	}
	if !transitionAllowed(exchange.State, model.ExchangeStateAccepted) {
		return nil, apperr.Conflict("exchange %d cannot be accepted from state %q", exchange.ID, exchange.State)
	}
	slot := map[string]uint{"frontId": req.FrontID}
	if err := s.fronts.Call(ctx, "reserveSlot", slot, nil); err != nil {
		return nil, err
	}
	exchange.FrontID = &req.FrontID
	exchange.State = model.ExchangeStateAccepted
	if err := s.exchanges.Update(ctx, exchange); err != nil {
		// Slot bookkeeping must not leak when the exchange row fails.
		s.fronts.Notify("releaseSlot", slot)
		return nil, err
	}
	s.logger.Info("front reserved",
		zap.Uint("exchangeId", exchange.ID),
		zap.Uint("frontId", req.FrontID))
	return exchange, nil
}

// ReleaseReservation returns the slot to the front and cancels the exchange.
// The box service drives this when a placement deadline passes unused.
func (s *Service) ReleaseReservation(ctx context.Context, req ReleaseReservationRequest) (*model.Exchange, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid release: %v", err)
	}
	exchange, err := s.exchanges.GetByID(ctx, req.ExchangeID)
	if err != nil {
		return nil, err
	}
	if exchange.FrontID == nil {
		return nil, apperr.Conflict("exchange %d has no reservation", exchange.ID)
	}
	frontID := *exchange.FrontID
	if err := s.fronts.Call(ctx, "releaseSlot", map[string]uint{"frontId": frontID}, nil); err != nil {
		return nil, err
	}
	exchange.FrontID = nil
	exchange.State = model.ExchangeStateCancelled
	if err := s.exchanges.Update(ctx, exchange); err != nil {
		return nil, err
	}
	s.logger.Info("reservation released",
		zap.Uint("exchangeId", exchange.ID),
		zap.Uint("frontId", frontID))
	return exchange, nil
}

func (s *Service) SetState(ctx context.Context, req SetStateRequest) (*model.Exchange, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid state change: %v", err)
	}
	exchange, err := s.exchanges.GetByID(ctx, req.ExchangeID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(exchange.State, req.State) {
		return nil, apperr.Conflict("exchange %d cannot move from %q to %q", exchange.ID, exchange.State, req.State)
	}
	if err := s.exchanges.SetState(ctx, exchange.ID, req.State); err != nil {
		return nil, err
	}
	exchange.State = req.State
	s.logger.Info("exchange state changed",
		zap.Uint("exchangeId", exchange.ID),
		zap.String("state", req.State))
	return exchange, nil
}
