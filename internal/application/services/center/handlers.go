package center

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("createCenter", rpc.Typed(func(ctx context.Context, req CreateCenterRequest) (any, error) {
		return s.CreateCenter(ctx, req)
	}))
	server.Handle("getCenter", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetCenter(ctx, id)
	}))
	server.Handle("getCenters", rpc.Typed(func(ctx context.Context, _ struct{}) (any, error) {
		return s.ListCenters(ctx)
	}))
	server.Handle("updateCenter", rpc.Typed(func(ctx context.Context, req UpdateCenterRequest) (any, error) {
		return s.UpdateCenter(ctx, req)
	}))
	server.Handle("deleteCenter", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return nil, s.DeleteCenter(ctx, id)
	}))
}
