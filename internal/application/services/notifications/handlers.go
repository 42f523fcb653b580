package notifications

import (
	"context"

	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
)

func (s *Service) Register(server *rpc.Server) {
	server.Handle("createNotification", rpc.Typed(func(ctx context.Context, req CreateNotificationRequest) (any, error) {
		return s.CreateNotification(ctx, req)
	}))
	// The id segment is the user whose notifications are listed.
	server.Handle("getNotifications", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		return s.ListNotifications(ctx, id)
	}))
	server.Handle("markRead", rpc.Typed(func(ctx context.Context, req MarkReadRequest) (any, error) {
		return nil, s.MarkRead(ctx, req)
	}))
	server.Handle("countUnread", rpc.Typed(func(ctx context.Context, req rpc.IDRequest) (any, error) {
		id, err := req.Uint()
		if err != nil {
			return nil, err
		}
		count, err := s.CountUnread(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"unread": count}, nil
	}))
}
