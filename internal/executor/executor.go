// Package executor runs raw SQL statements handed in by the HTTP layer.
//
// Statements are classified only by a case-insensitive "select" prefix after
// trimming. Anything else, including DROP, DDL and multi-statement batches, is
// executed verbatim as an update. "select ... into" is treated as a query.
package executor

import (
	"context"
	"strings"

	"sqlconsole/backend/internal/model"

	"go.uber.org/zap"
)

type StatementKind string

const (
	KindQuery  StatementKind = "query"
	KindUpdate StatementKind = "update"
)

// Client is the part of service.DBClient the executor needs.
type Client interface {
	ExecuteUpdate(ctx context.Context, query string) (int64, error)
	ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error)
}

// Logger records informational messages. *zap.Logger satisfies it.
type Logger interface {
	Info(msg string, fields ...zap.Field)
}

type SqlExecutor struct {
	client Client
	log    Logger
}

func New(client Client, log Logger) *SqlExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &SqlExecutor{client: client, log: log}
}

func Classify(sql string) StatementKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(sql)), "select") {
		return KindQuery
	}
	return KindUpdate
}

// Execute runs sql unmodified and returns either the result rows or a single
// {"update": n} entry. Client errors are returned as is.
func (e *SqlExecutor) Execute(ctx context.Context, sql string) (model.SqlResult, error) {
	if Classify(sql) == KindUpdate {
		e.log.Info("Executing update", zap.String("sql", sql))
		count, err := e.client.ExecuteUpdate(ctx, sql)
		if err != nil {
			return nil, err
		}
		e.log.Info("Returning update", zap.Int64("update", count))
		return model.UpdateResult(count), nil
	}

	e.log.Info("Executing query", zap.String("sql", sql))
	rows, err := e.client.ExecuteQuery(ctx, sql)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	e.log.Info("Returning query", zap.Int("rows", len(rows)))
	return model.SqlResult(rows), nil
}
