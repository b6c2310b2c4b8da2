package model

type ConnectRequest struct {
	Driver string `json:"driver"` // "postgres" or "sqlite3"
	DSN    string `json:"dsn"`    // connection string
}
