package executor

import (
	"context"
	"errors"
	"testing"

	"sqlconsole/backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockClient struct {
	updateFunc func(query string) (int64, error)
	queryFunc  func(query string) ([]map[string]any, error)

	updates []string
	queries []string
}

func (m *mockClient) ExecuteUpdate(ctx context.Context, query string) (int64, error) {
	m.updates = append(m.updates, query)
	if m.updateFunc != nil {
		return m.updateFunc(query)
	}
	return 0, nil
}

func (m *mockClient) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	m.queries = append(m.queries, query)
	if m.queryFunc != nil {
		return m.queryFunc(query)
	}
	return nil, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		sql  string
		want StatementKind
	}{
		{"SELECT 1", KindQuery},
		{"select * from users", KindQuery},
		{"   SeLeCt 1", KindQuery},
		{"\n\tselect 1\n", KindQuery},
		{"  SELECT", KindQuery},
		{"selectfoo", KindQuery},
		{"select id into backup from users", KindQuery},
		{"select 1; drop table users", KindQuery},
		{"", KindUpdate},
		{"   ", KindUpdate},
		{"insert into users(name) values('a')", KindUpdate},
		{"update users set name='x' where id=1", KindUpdate},
		{"delete from users", KindUpdate},
		{"DROP TABLE users", KindUpdate},
		{"with t as (select 1) select * from t", KindUpdate},
		{"explain select 1", KindUpdate},
		{"-- comment\nselect 1", KindUpdate},
		{"(select 1)", KindUpdate},
	}

	for _, tc := range tests {
		t.Run(tc.sql, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.sql))
		})
	}
}

func TestExecuteQuery(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		rows     []map[string]any
		expected model.SqlResult
	}{
		{
			name:     "select literal",
			sql:      "SELECT 1",
			rows:     []map[string]any{{"1": 1}},
			expected: model.SqlResult{{"1": 1}},
		},
		{
			name:     "no rows",
			sql:      "select * from users where id=99999",
			rows:     []map[string]any{},
			expected: model.SqlResult{},
		},
		{
			name:     "nil rows become empty",
			sql:      "select * from users where id=99999",
			rows:     nil,
			expected: model.SqlResult{},
		},
		{
			name: "order and values pass through",
			sql:  "select id, name from users",
			rows: []map[string]any{
				{"id": int64(2), "name": "bob"},
				{"id": int64(1), "name": nil},
			},
			expected: model.SqlResult{
				{"id": int64(2), "name": "bob"},
				{"id": int64(1), "name": nil},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockClient{queryFunc: func(string) ([]map[string]any, error) { return tc.rows, nil }}

			result, err := New(client, nil).Execute(context.Background(), tc.sql)

			require.NoError(t, err)
			assert.NotNil(t, result)
			assert.Equal(t, tc.expected, result)
			assert.Equal(t, []string{tc.sql}, client.queries)
			assert.Empty(t, client.updates)
		})
	}
}

func TestExecuteUpdate(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		count int64
	}{
		{name: "update", sql: "update users set name='x' where id=1", count: 1},
		{name: "insert", sql: "insert into users(name) values('a')", count: 1},
		{name: "delete", sql: "delete from users", count: 42},
		{name: "drop without allowlist", sql: "DROP TABLE users", count: 0},
		{name: "select mid-string", sql: "insert into t  select * from users", count: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockClient{updateFunc: func(string) (int64, error) { return tc.count, nil }}

			result, err := New(client, nil).Execute(context.Background(), tc.sql)

			require.NoError(t, err)
			assert.Equal(t, model.SqlResult{{"update": tc.count}}, result)
			assert.Equal(t, []string{tc.sql}, client.updates)
			assert.Empty(t, client.queries)
		})
	}
}

func TestExecuteRunsOriginalText(t *testing.T) {
	client := &mockClient{}
	exec := New(client, nil)

	_, err := exec.Execute(context.Background(), "  SeLeCt 1  ")
	require.NoError(t, err)
	_, err = exec.Execute(context.Background(), "\tDELETE FROM Users ")
	require.NoError(t, err)

	assert.Equal(t, []string{"  SeLeCt 1  "}, client.queries)
	assert.Equal(t, []string{"\tDELETE FROM Users "}, client.updates)
}

func TestExecuteErrors(t *testing.T) {
	syntaxErr := errors.New(`pq: syntax error at end of input`)
	connErr := errors.New("dial tcp: connection refused")

	t.Run("empty input goes to update and fails", func(t *testing.T) {
		client := &mockClient{updateFunc: func(string) (int64, error) { return 0, syntaxErr }}

		result, err := New(client, nil).Execute(context.Background(), "")

		assert.Same(t, syntaxErr, err)
		assert.Nil(t, result)
		assert.Equal(t, []string{""}, client.updates)
	})

	t.Run("query error is not wrapped", func(t *testing.T) {
		client := &mockClient{queryFunc: func(string) ([]map[string]any, error) { return nil, connErr }}

		result, err := New(client, nil).Execute(context.Background(), "select 1")

		assert.Same(t, connErr, err)
		assert.Nil(t, result)
	})

	t.Run("no retry", func(t *testing.T) {
		client := &mockClient{updateFunc: func(string) (int64, error) { return 0, connErr }}

		_, err := New(client, nil).Execute(context.Background(), "delete from users")

		assert.Error(t, err)
		assert.Len(t, client.updates, 1)
	})
}

func TestExecuteLogs(t *testing.T) {
	t.Run("update", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		client := &mockClient{updateFunc: func(string) (int64, error) { return 7, nil }}

		_, err := New(client, zap.New(core)).Execute(context.Background(), "delete from users")
		require.NoError(t, err)

		entries := logs.AllUntimed()
		require.Len(t, entries, 2)
		assert.Equal(t, "Executing update", entries[0].Message)
		assert.Equal(t, "delete from users", entries[0].ContextMap()["sql"])
		assert.Equal(t, "Returning update", entries[1].Message)
		assert.Equal(t, int64(7), entries[1].ContextMap()["update"])
	})

	t.Run("query", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		client := &mockClient{queryFunc: func(string) ([]map[string]any, error) {
			return []map[string]any{{"a": 1}, {"a": 2}}, nil
		}}

		_, err := New(client, zap.New(core)).Execute(context.Background(), "select a from t")
		require.NoError(t, err)

		entries := logs.AllUntimed()
		require.Len(t, entries, 2)
		assert.Equal(t, "Executing query", entries[0].Message)
		assert.Equal(t, "select a from t", entries[0].ContextMap()["sql"])
		assert.Equal(t, int64(2), entries[1].ContextMap()["rows"])
	})

	t.Run("failure logs only the attempt", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		client := &mockClient{updateFunc: func(string) (int64, error) { return 0, errors.New("boom") }}

		_, err := New(client, zap.New(core)).Execute(context.Background(), "drop table users")
		require.Error(t, err)

		assert.Equal(t, 1, logs.FilterMessage("Executing update").Len())
		assert.Equal(t, 0, logs.FilterMessage("Returning update").Len())
	})
}
