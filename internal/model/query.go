package model

// SqlResult is the body returned by POST /sql. A query yields one map per
// row; any other statement yields a single {"update": n} entry.
type SqlResult []map[string]any

const UpdateKey = "update"

func UpdateResult(count int64) SqlResult {
	return SqlResult{{UpdateKey: count}}
}
