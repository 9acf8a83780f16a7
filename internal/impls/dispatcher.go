package impls

import (
	"context"

	"github.com/magicaleks/freq-server/internal/domain"
)

// Dispatcher turns a decoded operation into a response envelope.
type Dispatcher interface {
	Dispatch(ctx context.Context, op domain.Operation, body string) domain.Response
}
