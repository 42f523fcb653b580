package rpc

import (
	"strconv"

	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
)

// IDRequest is the payload the gateway synthesizes for id-addressed
// commands: {"id": "<path segment>"}. The segment arrives as a string.
type IDRequest struct {
	ID string `json:"id"`
}

func (r IDRequest) Uint() (uint, error) {
	id, err := strconv.ParseUint(r.ID, 10, 32)
	if err != nil {
		return 0, apperr.BadRequest("invalid id %q", r.ID)
	}
	return uint(id), nil
}
