package auth

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("register", rpc.Typed(func(ctx context.Context, req RegisterRequest) (any, error) {
		return s.RegisterUser(ctx, req)
	}))
	server.Handle("login", rpc.Typed(func(ctx context.Context, req LoginRequest) (any, error) {
		return s.Login(ctx, req)
	}))
	server.Handle("checkToken", rpc.Typed(func(ctx context.Context, req TokenRequest) (any, error) {
		return s.CheckToken(ctx, req)
	}))
}
