package item

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("createItem", rpc.Typed(func(ctx context.Context, req CreateItemRequest) (any, error) {
		return s.CreateItem(ctx, req)
	}))
	server.Handle("getItem", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetItem(ctx, id)
	}))
	server.Handle("getItemsByUser", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetItemsByUser(ctx, id)
	}))
	server.Handle("updateItem", rpc.Typed(func(ctx context.Context, req UpdateItemRequest) (any, error) {
		return s.UpdateItem(ctx, req)
	}))
	server.Handle("deleteItem", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return nil, s.DeleteItem(ctx, id)
	}))
}
