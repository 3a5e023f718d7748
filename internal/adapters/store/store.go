package store

import (
	"context"

	"github.com/mikey/mailbox-warmup/internal/core"
)

// Store is a core.Store that also manages account rows and its own lifecycle
type Store interface {
	core.Store
	CreateAccount(ctx context.Context, account *core.Account) (*core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	Close() error
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
