package store

import (
	"context"
	"fmt"

	"minimarket/domain"
)

// Backend is everything the storefront persists: catalog, orders and accounts.
type Backend interface {
	domain.CatalogStore
	domain.OrderStore
	domain.UserStore
	Close() error
}

var (
	_ Backend = (*InMemoryStore)(nil)
	_ Backend = (*FileStore)(nil)
	_ Backend = (*SQLStore)(nil)
)

// NewStore constructs a Backend by kind: "memory", "file", "sqlite" or "postgres".
// dsn is the file path for file and sqlite stores and the connection string for postgres;
// it is ignored for memory.
func NewStore(ctx context.Context, kind, dsn string, opts ...Option) (Backend, error) {
	switch kind {
	case "memory", "mem":
		return NewInMemoryStore(opts...), nil
	case "file":
		if dsn == "" {
			return nil, fmt.Errorf("file path required for file store")
		}
		return NewFileStore(dsn, opts...)
	case "sqlite":
		if dsn == "" {
			return nil, fmt.Errorf("database path required for sqlite store")
		}
		return OpenSQLite(ctx, dsn, opts...)
	case "postgres", "pg":
		if dsn == "" {
			return nil, fmt.Errorf("connection string required for postgres store")
		}
		return OpenPostgres(ctx, dsn, opts...)
	default:
		return nil, fmt.Errorf("unknown store kind: %s", kind)
	}
}
