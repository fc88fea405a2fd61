package session

import (
	"context"

	"github.com/ganot/impala/internal/api"
)

// TokenStore persists the bearer token across restarts. The Manager is
// the only writer.
type TokenStore interface {
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Get(ctx context.Context) (string, error)
}

// AccountClient is the slice of the API client the manager depends on.
type AccountClient interface {
	Me(ctx context.Context) (*api.User, error)
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) error
}
