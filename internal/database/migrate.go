package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quiz-corpus/internal/logger"

	"go.uber.org/zap"
)

const migrationSuffix = ".up.sql"

// Oracle has no CREATE TABLE IF NOT EXISTS; ORA-00955 (name already used) is swallowed instead.
const createMigrationsTable = `BEGIN
	EXECUTE IMMEDIATE 'CREATE TABLE schema_migrations (version VARCHAR2(255) PRIMARY KEY, applied_at TIMESTAMP DEFAULT SYSTIMESTAMP NOT NULL)';
EXCEPTION
	WHEN OTHERS THEN
		IF SQLCODE != -955 THEN
			RAISE;
		END IF;
END;`

// RunMigrations applies every *.up.sql file in dir that is not yet recorded in
// schema_migrations, in file-name order.
func RunMigrations(ctx context.Context, db *sql.DB, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}

	var names []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), migrationSuffix) {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("could not create schema_migrations: %w", err)
	}

	log := logger.Get()
	for _, name := range names {
		version := strings.TrimSuffix(name, migrationSuffix)

		var applied int
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = :1`, version).Scan(&applied)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("could not check migration %s: %w", name, err)
		}
		if applied > 0 {
			log.Debug("Skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}

		for i, stmt := range SplitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("could not execute statement %d of migration %s: %w", i+1, name, err)
			}
		}

		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (:1)`, version); err != nil {
			return fmt.Errorf("could not record migration %s: %w", name, err)
		}
		log.Info("Executed migration", zap.String("version", version))
	}

	log.Info("Migrations completed successfully")
	return nil
}

// SplitStatements splits a script on lines holding a single "/", the SQL*Plus
// terminator. Plain SQL loses its trailing semicolon; PL/SQL blocks keep theirs.
func SplitStatements(script string) []string {
	var stmts []string
	var current []string
	flush := func() {
		stmt := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if stmt == "" {
			return
		}
		if !isPLSQL(stmt) {
			stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
		}
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "/" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "--") && len(current) == 0 {
			continue
		}
		current = append(current, line)
	}
	flush()
	return stmts
}

func isPLSQL(stmt string) bool {
	upper := strings.ToUpper(stmt)
	return strings.HasPrefix(upper, "BEGIN") || strings.HasPrefix(upper, "DECLARE")
}

// NewMigrateOracleDB opens a plain database/sql connection for the migrator.
func NewMigrateOracleDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	return db, nil
}
