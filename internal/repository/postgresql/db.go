package postgresql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/shreyakodukula/parking/internal/config"
)

const uniqueViolationCode = "23505"

// NewDB opens the pool with the pgx driver by default, or lib/pq when DB_DRIVER=postgres.
func NewDB(cfg *config.Config) (*sql.DB, error) {
	driver, err := driverName(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	db, err := sql.Open(driver, psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func driverName(name string) (string, error) {
	switch name {
	case "", config.DBDriverPgx:
		return config.DBDriverPgx, nil
	case config.DBDriverPq:
		return config.DBDriverPq, nil
	}
	return "", fmt.Errorf("unsupported DB_DRIVER %q", name)
}

// uniqueViolation reports whether err is a unique-constraint violation on the named
// constraint. An empty constraint matches any unique violation. Errors come back as
// *pgconn.PgError under pgx and as *pq.Error under lib/pq.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode && (constraint == "" || pqErr.Constraint == constraint)
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}
