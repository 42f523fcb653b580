package front

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("createFront", rpc.Typed(func(ctx context.Context, req CreateFrontRequest) (any, error) {
		return s.CreateFront(ctx, req)
	}))
	server.Handle("getFront", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetFront(ctx, id)
	}))
	// The id segment is the center whose fronts are listed.
	server.Handle("getFrontsByCenter", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.ListFronts(ctx, id)
	}))
	server.Handle("getCenter", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetCenter(ctx, id)
	}))
	server.Handle("updateFront", rpc.Typed(func(ctx context.Context, req UpdateFrontRequest) (any, error) {
		return s.UpdateFront(ctx, req)
	}))
	server.Handle("deleteFront", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return nil, s.DeleteFront(ctx, id)
	}))
	server.Handle("reserveSlot", rpc.Typed(func(ctx context.Context, req SlotRequest) (any, error) {
		return nil, s.ReserveSlot(ctx, req)
	}))
	server.Handle("releaseSlot", rpc.Typed(func(ctx context.Context, req SlotRequest) (any, error) {
		return nil, s.ReleaseSlot(ctx, req)
	}))
}
