// Package sqlitemigrate runs forward-only SQL migrations against SQLite.
//
// A migration is a .sql file. When it carries "-- +migrate Up" and
// "-- +migrate Down" markers only the Up section runs. Applied files are
// recorded in the schema_migrations table by their path under the root.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

const (
	table = "schema_migrations"

	markUp   = "-- +migrate Up"
	markDown = "-- +migrate Down"
)

// Apply runs every pending migration under root in name order and returns
// the ones it ran. Each migration commits with its bookkeeping row, so a
// failure leaves earlier migrations applied and the failed one unrecorded.
func Apply(ctx context.Context, db *sql.DB, fsys fs.FS, root string) ([]string, error) {
	if db == nil {
		return nil, errors.New("sql db is required")
	}
	if root = strings.TrimSpace(root); root == "" {
		root = "."
	}

	names, err := sqlFiles(fsys, root)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS `+table+` (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`,
	); err != nil {
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	done, err := appliedSet(ctx, db)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, name := range names {
		file := path.Join(root, name)
		if done[file] {
			continue
		}
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return ran, fmt.Errorf("read migration %s: %w", file, err)
		}
		stmt := upSection(string(content))
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := run(ctx, db, file, stmt); err != nil {
			return ran, err
		}
		ran = append(ran, file)
	}
	return ran, nil
}

func sqlFiles(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("list migrations in %s: %w", root, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && path.Ext(entry.Name()) == ".sql" {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func appliedSet(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()
	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		done[name] = true
	}
	return done, rows.Err()
}

func run(ctx context.Context, db *sql.DB, file, stmt string) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", file, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, stmt); err != nil && !alreadyApplied(err) {
		return fmt.Errorf("migrate %s: %w", file, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO `+table+` (name, applied_at) VALUES (?, ?)`,
		file, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record %s: %w", file, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", file, err)
	}
	return nil
}

// upSection returns the text between the Up and Down markers, or all of
// content when there is no Up marker.
func upSection(content string) string {
	_, after, found := strings.Cut(content, markUp)
	if !found {
		return content
	}
	before, _, _ := strings.Cut(after, markDown)
	return before
}

// alreadyApplied reports DDL errors that mean the change is already in
// place, as when a database predates the bookkeeping table.
func alreadyApplied(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}
