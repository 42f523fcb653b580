package rpc

import (
	"context"
	"encoding/json"

	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
)

// Typed adapts a strongly-typed handler onto the raw payload signature.
// Services register their commands through it.
func Typed[T any](fn func(ctx context.Context, in T) (any, error)) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var in T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &in); err != nil {
				return nil, apperr.BadRequest("invalid payload: %v", err)
			}
		}
		return fn(ctx, in)
	}
}
