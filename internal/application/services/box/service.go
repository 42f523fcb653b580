package box

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/docstore"
	"github.com/swapspot/swapspot/internal/infrastructure/jobs"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Caller is the slice of the client registry the box service needs: the
// front service (owning-center lookup) and the exchange service
// (reservation release, state changes).
type Caller interface {
	Call(ctx context.Context, cmd string, payload any, out any) error
	Notify(cmd string, payload any)
}

// Timing groups the three lifecycle windows, loaded from config.
type Timing struct {
	PlacementWindow time.Duration
	CodeTTL         time.Duration
	AutoCloseDelay  time.Duration
}

type Service struct {
	boxes     repository.BoxRepository
	fronts    Caller
	exchanges Caller
	scheduler *jobs.Scheduler
	audit     docstore.BoxAuditLog
	timing    Timing
	logger    *logger.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(
	boxes repository.BoxRepository,
	fronts Caller,
	exchanges Caller,
	scheduler *jobs.Scheduler,
	audit docstore.BoxAuditLog,
	timing Timing,
	logger *logger.Logger,
) *Service {
	return &Service{
		boxes:     boxes,
		fronts:    fronts,
		exchanges: exchanges,
		scheduler: scheduler,
		audit:     audit,
		timing:    timing,
		logger:    logger,
		validate:  validator.New(),
		now:       time.Now,
	}
}

type AttachExchangeRequest struct {
	ExchangeID uint `json:"exchangeId" validate:"required"`
	FrontID    uint `json:"frontId" validate:"required"`
}

type GenerateCodeRequest struct {
	ExchangeID uint `json:"exchangeId" validate:"required"`
}

type GenerateCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type OpenBoxRequest struct {
	ExchangeID uint   `json:"exchangeId" validate:"required"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
}

func reclaimKey(exchangeID uint) string {
	return fmt.Sprintf("box:reclaim:%d", exchangeID)
}

func closeKey(exchangeID uint) string {
	return fmt.Sprintf("box:close:%d", exchangeID)
}

// AttachExchange assigns a physical box to an accepted exchange and arms the
// reclaim task. An exchange that never places its items loses the box when
// the placement window closes.
func (s *Service) AttachExchange(ctx context.Context, req AttachExchangeRequest) (*model.Box, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid attach request: %v", err)
	}
	box := &model.Box{
		ExchangeID:        req.ExchangeID,
		FrontID:           req.FrontID,
		PlacementDeadline: s.now().Add(s.timing.PlacementWindow),
	}
	if err := s.boxes.Create(ctx, box); err != nil {
		return nil, err
	}
	s.scheduler.Schedule(reclaimKey(req.ExchangeID), s.timing.PlacementWindow, func(ctx context.Context) error {
		return s.reclaim(ctx, req.ExchangeID)
	})
	s.recordAudit(ctx, box, docstore.BoxEventAttached,
		fmt.Sprintf("placement deadline %s", box.PlacementDeadline.Format(time.RFC3339)))
	s.logger.Info("box attached",
		zap.Uint("exchangeId", box.ExchangeID),
		zap.Uint("frontId", box.FrontID),
		zap.Time("placementDeadline", box.PlacementDeadline))
	return box, nil
}

// GenerateCode issues a fresh single-use open code. A still-live earlier code
// is silently replaced. The plaintext goes back to the caller once; only the
// bcrypt hash is stored.
func (s *Service) GenerateCode(ctx context.Context, req GenerateCodeRequest) (*GenerateCodeResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid code request: %v", err)
	}
	box, err := s.boxes.GetByExchangeID(ctx, req.ExchangeID)
	if err != nil {
		return nil, err
	}
	if box.ItemsPlaced {
		return nil, apperr.Conflict("box for exchange %d already used", req.ExchangeID)
	}
	code, err := randomCode()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("code generation failed: %w", err))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("code hashing failed: %w", err))
	}
	expiry := s.now().Add(s.timing.CodeTTL)
	if err := s.boxes.SetCode(ctx, req.ExchangeID, string(hash), expiry); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, box, docstore.BoxEventCodeIssued,
		fmt.Sprintf("expires %s", expiry.Format(time.RFC3339)))
	s.logger.Info("open code issued",
		zap.Uint("exchangeId", req.ExchangeID),
		zap.Time("expiresAt", expiry))
	return &GenerateCodeResponse{Code: code, ExpiresAt: expiry}, nil
}

// OpenBox verifies the code and opens the box. Verification and the state
// flip run under a row lock, so two concurrent opens with the same code
// serialize and only the first one passes. Success disarms the reclaim task
// and arms auto-close.
func (s *Service) OpenBox(ctx context.Context, req OpenBoxRequest) (*model.Box, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid open request: %v", err)
	}
	box, err := s.boxes.Open(ctx, req.ExchangeID, func(box *model.Box) error {
		if !box.HasLiveCode(s.now()) {
			return apperr.Conflict("box cannot be opened")
		}
		if bcrypt.CompareHashAndPassword([]byte(box.OpenCodeHash), []byte(req.Code)) != nil {
			return apperr.Unauthorized("incorrect code")
		}
		box.OpenCodeHash = ""
		box.OpenCodeExpiry = nil
		box.ItemsPlaced = true
		box.Opened = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.scheduler.Cancel(reclaimKey(req.ExchangeID))
	s.scheduler.Schedule(closeKey(req.ExchangeID), s.timing.AutoCloseDelay, func(ctx context.Context) error {
		return s.autoClose(ctx, req.ExchangeID)
	})
	s.recordAudit(ctx, box, docstore.BoxEventOpened, "")
	s.logger.Info("box opened", zap.Uint("exchangeId", req.ExchangeID))
	return box, nil
}

func (s *Service) GetBox(ctx context.Context, exchangeID uint) (*model.Box, error) {
	return s.boxes.GetByExchangeID(ctx, exchangeID)
}

// GetBoxLog returns the audit trail of one box from the document store.
func (s *Service) GetBoxLog(ctx context.Context, exchangeID uint) ([]docstore.BoxAuditEntry, error) {
	return s.audit.ListByExchange(ctx, exchangeID)
}

// reclaim fires when the placement window closes. A box that was used in
// time is left alone; an unused one gives its slot back and disappears.
// Errors propagate to the scheduler, which logs and retries the whole step,
// so each call must tolerate work an earlier attempt already did.
func (s *Service) reclaim(ctx context.Context, exchangeID uint) error {
	box, err := s.boxes.GetByExchangeID(ctx, exchangeID)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil
		}
		return err
	}
	if box.ItemsPlaced {
		return nil
	}
	var center model.Center
	if err := s.fronts.Call(ctx, "getCenter", map[string]string{"id": fmt.Sprint(box.FrontID)}, &center); err != nil {
		return fmt.Errorf("resolve center for front %d: %w", box.FrontID, err)
	}
	// A conflict means a previous attempt already released the reservation
	// and failed later; the remaining work is the delete below.
	if err := s.exchanges.Call(ctx, "releaseReservation", map[string]uint{"exchangeId": exchangeID}, nil); err != nil && apperr.CodeOf(err) != apperr.CodeConflict {
		return fmt.Errorf("release reservation for exchange %d: %w", exchangeID, err)
	}
	if err := s.boxes.DeleteByExchangeID(ctx, exchangeID); err != nil {
		return err
	}
	s.recordAudit(ctx, box, docstore.BoxEventReclaimed,
		fmt.Sprintf("slot returned to %s", center.Name))
	s.logger.Info("box reclaimed",
		zap.Uint("exchangeId", exchangeID),
		zap.Uint("frontId", box.FrontID),
		zap.String("center", center.Name))
	return nil
}

// autoClose fires shortly after a successful open and latches the box shut.
// The exchange moves to inBox: the items are waiting for pickup.
func (s *Service) autoClose(ctx context.Context, exchangeID uint) error {
	box, err := s.boxes.GetByExchangeID(ctx, exchangeID)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil
		}
		return err
	}
	if !box.Opened {
		return nil
	}
	// The exchange moves first: if the call fails the box stays open and the
	// retry re-enters the whole step. A conflict on re-entry means an earlier
	// attempt already moved the exchange and only the box write is left.
	if err := s.exchanges.Call(ctx, "setState", map[string]any{
		"exchangeId": exchangeID,
		"state":      model.ExchangeStateInBox,
	}, nil); err != nil && apperr.CodeOf(err) != apperr.CodeConflict {
		return fmt.Errorf("set exchange %d state: %w", exchangeID, err)
	}
	box.Opened = false
	if err := s.boxes.Update(ctx, box); err != nil {
		return err
	}
	s.recordAudit(ctx, box, docstore.BoxEventClosed, "")
	s.logger.Info("box auto-closed", zap.Uint("exchangeId", exchangeID))
	return nil
}

func (s *Service) recordAudit(ctx context.Context, box *model.Box, event, detail string) {
	entry := docstore.BoxAuditEntry{
		ExchangeID: box.ExchangeID,
		FrontID:    box.FrontID,
		Event:      event,
		Detail:     detail,
		At:         s.now().UTC(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("box audit write failed",
			zap.Uint("exchangeId", box.ExchangeID),
			zap.String("event", event),
			zap.Error(err))
	}
}

// randomCode draws a uniform 6-digit decimal code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
