package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// PoolOptions tunes the underlying database/sql pool. Zero values keep the
// database/sql defaults.
type PoolOptions struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
}

type SQLClient struct {
	driver string
	opts   PoolOptions
	db     *sqlx.DB
}

// NewSQLClient returns an unconnected client for one of the supported drivers.
func NewSQLClient(driver string, opts PoolOptions) (*SQLClient, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return &SQLClient{driver: driver, opts: opts}, nil
}

func (s *SQLClient) Driver() string {
	return s.driver
}

func (s *SQLClient) Connect(dsn string) error {
	db, err := sqlx.Connect(s.driver, dsn)
	if err != nil {
		return err
	}
	if s.opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.opts.MaxOpenConns)
	}
	if s.opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(s.opts.MaxIdleConns)
	}
	if s.opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(s.opts.ConnMaxLifetime)
	}
	s.db = db
	return nil
}

func (s *SQLClient) Disconnect() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLClient) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrNotConnected
	}
	return s.db.PingContext(ctx)
}

func (s *SQLClient) ExecuteUpdate(ctx context.Context, query string) (int64, error) {
	if s.db == nil {
		return 0, ErrNotConnected
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLClient) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	textual := map[string]bool{}
	for _, ct := range colTypes {
		textual[ct.Name()] = bytesAreText(ct.DatabaseTypeName())
	}

	results := []map[string]any{}
	for rows.Next() {
		rowMap := map[string]any{}
		if err := rows.MapScan(rowMap); err != nil {
			return nil, err
		}
		for col, val := range rowMap {
			if b, ok := val.([]byte); ok && textual[col] {
				rowMap[col] = string(b)
			}
		}
		results = append(results, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// bytesAreText reports whether a []byte value of the given database type is
// the driver's wire form of a textual value (lib/pq hands numeric, json and
// similar types over this way). Binary types, and sqlite expressions without
// a declared type, keep their raw bytes.
func bytesAreText(typeName string) bool {
	switch strings.ToUpper(typeName) {
	case "", "BYTEA", "BLOB":
		return false
	}
	return true
}

func (s *SQLClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StatementTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.StatementTimeout)
	}
	return context.WithCancel(ctx)
}
