package service

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported driver")
	ErrNotConnected      = errors.New("not connected")
)

type DBClient interface {
	Connect(dsn string) error
	Disconnect() error
	Ping(ctx context.Context) error
	// ExecuteUpdate runs a statement and returns the affected-row count.
	ExecuteUpdate(ctx context.Context, query string) (int64, error)
	// ExecuteQuery runs a statement and returns one column->value map per row.
	ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error)
}
