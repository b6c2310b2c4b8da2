package handler

import (
	"net/http"
	"sync"
	"time"

	"sqlconsole/backend/internal/executor"
	"sqlconsole/backend/internal/metrics"
	"sqlconsole/backend/internal/model"
	"sqlconsole/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	dbMu     sync.RWMutex
	activeDB service.DBClient
)

// PoolOptions is applied to every client created by ConnectDB or /connect.
var PoolOptions service.PoolOptions

// newDBClient returns a service.DBClient for the driver.
// It can be overridden in tests.
var newDBClient = func(driver string) (service.DBClient, error) {
	return service.NewSQLClient(driver, PoolOptions)
}

func getActiveDB() service.DBClient {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return activeDB
}

func swapActiveDB(db service.DBClient) service.DBClient {
	dbMu.Lock()
	defer dbMu.Unlock()
	prev := activeDB
	activeDB = db
	return prev
}

// ConnectDB opens a client for driver and makes it the active connection.
// The previously active client, if any, is disconnected.
func ConnectDB(driver, dsn string) error {
	client, err := newDBClient(driver)
	if err != nil {
		return err
	}
	if err := client.Connect(dsn); err != nil {
		return err
	}

	activate(client, baseLogger())
	return nil
}

func activate(client service.DBClient, l *zap.Logger) {
	if prev := swapActiveDB(client); prev != nil {
		if err := prev.Disconnect(); err != nil {
			l.Warn("failed to close previous connection", zap.Error(err))
		}
	}
}

// CloseDB disconnects the active client.
func CloseDB() error {
	if prev := swapActiveDB(nil); prev != nil {
		return prev.Disconnect()
	}
	return nil
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func HealthHandler(c *gin.Context) {
	db := getActiveDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "No active DB connection"})
		return
	}

	if err := db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ConnectHandler(c *gin.Context) {
	var req model.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	client, err := newDBClient(req.Driver)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported driver"})
		return
	}

	if err := client.Connect(req.DSN); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect: " + err.Error()})
		return
	}

	activate(client, requestLogger(c))
	requestLogger(c).Info("connected", zap.String("driver", req.Driver))
	c.JSON(http.StatusOK, gin.H{"message": "Connected successfully"})
}

// SQLHandler executes the raw request body as a single SQL statement.
func SQLHandler(c *gin.Context) {
	db := getActiveDB()
	if db == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active DB connection"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sql := string(body)

	reqLog := requestLogger(c)
	kind := executor.Classify(sql)
	start := time.Now()

	result, err := executor.New(db, reqLog).Execute(c.Request.Context(), sql)
	metrics.ObserveStatement(string(kind), err, time.Since(start))
	if err != nil {
		reqLog.Error("statement failed", zap.String("kind", string(kind)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
