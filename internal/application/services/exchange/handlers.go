package exchange

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("createExchange", rpc.Typed(func(ctx context.Context, req CreateExchangeRequest) (any, error) {
		return s.CreateExchange(ctx, req)
	}))
	server.Handle("getExchange", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetExchange(ctx, id)
	}))
	server.Handle("reserveFront", rpc.Typed(func(ctx context.Context, req ReserveFrontRequest) (any, error) {
		return s.ReserveFront(ctx, req)
	}))
	server.Handle("releaseReservation", rpc.Typed(func(ctx context.Context, req ReleaseReservationRequest) (any, error) {
		return s.ReleaseReservation(ctx, req)
	}))
	server.Handle("setState", rpc.Typed(func(ctx context.Context, req SetStateRequest) (any, error) {
		return s.SetState(ctx, req)
	}))
}
