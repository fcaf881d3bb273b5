package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const dbApplicationName = "site-api"

// OpenDB parses dsn with pgx, opens a database/sql pool over it and pings
// before returning. With debug set it logs who and where it connected to.
func OpenDB(dsn string, debug bool, log zerolog.Logger) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DB DSN")
	}
	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DB DSN: %w", err)
	}
	if _, set := cc.RuntimeParams["application_name"]; !set {
		cc.RuntimeParams["application_name"] = dbApplicationName
	}

	db := stdlib.OpenDB(*cc)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s:%d: %w", cc.Host, cc.Port, err)
	}

	if debug {
		var who, name, version string
		err := db.QueryRowContext(ctx,
			`SELECT current_user, current_database(), current_setting('server_version')`,
		).Scan(&who, &name, &version)
		ev := log.Debug().Str("host", cc.Host).Str("user", who).Str("db", name).Str("version", version)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("database connected")
	}
	return db, nil
}
