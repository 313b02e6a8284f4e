package database

import (
	"fmt"

	"quiz-corpus/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver
)

// DriverName is the database/sql name go-ora registers under.
const DriverName = "oracle"

func init() {
	// go-ora accepts :name placeholders; sqlx only knows this for the cgo drivers.
	sqlx.BindDriver(DriverName, sqlx.NAMED)
}

// NewSQLXOracleDB opens and pings an Oracle connection pool.
func NewSQLXOracleDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Oracle database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Oracle database: %w", err)
	}

	logger.Get().Info("Successfully connected to Oracle database")
	return db, nil
}
