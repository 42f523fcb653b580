package box

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("attachExchange", rpc.Typed(func(ctx context.Context, req AttachExchangeRequest) (any, error) {
		return s.AttachExchange(ctx, req)
	}))
	server.Handle("generateCode", rpc.Typed(func(ctx context.Context, req GenerateCodeRequest) (any, error) {
		return s.GenerateCode(ctx, req)
	}))
	server.Handle("openBox", rpc.Typed(func(ctx context.Context, req OpenBoxRequest) (any, error) {
		return s.OpenBox(ctx, req)
	}))
	// The id segment is the exchange the box belongs to.
	server.Handle("getBox", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetBox(ctx, id)
	}))
	server.Handle("getBoxLog", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetBoxLog(ctx, id)
	}))
}
