package user

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("createUser", rpc.Typed(func(ctx context.Context, req CreateUserRequest) (any, error) {
		return s.CreateUser(ctx, req)
	}))
	server.Handle("getUser", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.GetUser(ctx, id)
	}))
	server.Handle("updateUser", rpc.Typed(func(ctx context.Context, req UpdateUserRequest) (any, error) {
		return s.UpdateUser(ctx, req)
	}))
	server.Handle("deleteUser", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return nil, s.DeleteUser(ctx, id)
	}))
	server.Handle("sendFriendRequest", rpc.Typed(func(ctx context.Context, req FriendRequestInput) (any, error) {
		return s.SendFriendRequest(ctx, req)
	}))
	server.Handle("acceptFriendRequest", rpc.Typed(func(ctx context.Context, req AcceptFriendRequestInput) (any, error) {
		return nil, s.AcceptFriendRequest(ctx, req)
	}))
	server.Handle("getFriends", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.ListFriends(ctx, id)
	}))
	server.Handle("getFriendRequests", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.ListFriendRequests(ctx, id)
	}))
}
