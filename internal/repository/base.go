// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"unnest/internal/database"
	"unnest/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// instrument opens a repository span and a latency observation. The returned
// func closes both and must be called exactly once with the operation's error.
func instrument(ctx context.Context, db *gorm.DB, method, table string) (context.Context, func(error)) {
	stop := observability.TrackQuery(method, table)
	ctx, span := observability.GetTraceLayer(database.DBSystem(db)).TraceRepositoryMethod(ctx, method, table)
	return ctx, func(err error) {
		stop()
		observability.EndSpan(span, err)
	}
}

// uniqueViolation reports whether err is a unique-constraint failure and, when
// it can tell, which column caused it.
func uniqueViolation(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		return columnFromConstraint(pgErr.ConstraintName), true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}

	// SQLite: "UNIQUE constraint failed: user.email"
	msg := err.Error()
	if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
		rest := strings.TrimPrefix(msg[idx:], "UNIQUE constraint failed: ")
		if end := strings.IndexAny(rest, " ,"); end >= 0 {
			rest = rest[:end]
		}
		if dot := strings.LastIndex(rest, "."); dot >= 0 {
			rest = rest[dot+1:]
		}
		return rest, true
	}

	lower := strings.ToLower(msg)
	if strings.Contains(lower, "duplicate key") || strings.Contains(lower, "23505") {
		return "", true
	}
	return "", false
}

// columnFromConstraint extracts the column from GORM-style index names such as idx_user_email.
func columnFromConstraint(name string) string {
	for _, col := range []string{"username", "email"} {
		if strings.HasSuffix(name, "_"+col) || strings.HasSuffix(name, "_"+col+"_key") {
			return col
		}
	}
	return ""
}
