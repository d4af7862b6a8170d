// Package rundb implements the compile-run ledger (SPEC_FULL.md §6,
// component M): one row per internal/compiler.Compile invocation,
// recorded purely as an observer of the driver (cmd/acec), never
// consumed by the core pipeline. Modeled on the teacher's
// internal/db/db.go connection/retry pattern and models.Stage's column
// style, swapped from raw database/sql onto gorm since the ledger's
// schema is simple enough that gorm's AutoMigrate removes the need for
// the teacher's hand-written migration file.
package rundb

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run is one compile() invocation record. ID pairs an internal uuid
// primary key with a monotonic public ulid, exactly as the teacher's
// internal/db/api.go pairs runID/publicULID.
type Run struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	PublicULID  string `gorm:"type:varchar(26);uniqueIndex"`
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     string         `gorm:"type:varchar(20);not null"` // "ok" or "error"
	DiagCount   int            `gorm:"default:0"`
	Diagnostics datatypes.JSON `gorm:"type:jsonb"`
}

// Ledger wraps the gorm handle. It is constructed once per driver
// invocation and is never passed into internal/compiler.
type Ledger struct {
	db *gorm.DB
}

// Open connects to (creating if absent) the SQLite ledger at path,
// mirroring the teacher's Connect: ensure the parent directory exists,
// then gorm.Open + AutoMigrate.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("rundb: creating ledger directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("rundb: connecting: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("rundb: migrating: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record is a completed Run's fields, collected by the driver after
// compiler.Compile returns.
type Record struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     string
	DiagCount   int
	Diagnostics []string
}

// Write inserts one Run row, retrying past SQLite's "database is locked"
// the way the teacher's execWithRetry does for a concurrent local writer
// (two acec invocations sharing the same ledger file).
func (l *Ledger) Write(rec Record) error {
	diagJSON, err := diagnosticsJSON(rec.Diagnostics)
	if err != nil {
		return fmt.Errorf("rundb: marshaling diagnostics: %w", err)
	}

	run := &Run{
		ID:          uuid.NewString(),
		PublicULID:  ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String(),
		StartedAt:   rec.StartedAt,
		FinishedAt:  rec.FinishedAt,
		Outcome:     rec.Outcome,
		DiagCount:   rec.DiagCount,
		Diagnostics: diagJSON,
	}
	return withRetry(func() error { return l.db.Create(run).Error })
}

// Close releases the underlying *sql.DB handle.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withRetry mirrors the teacher's execWithRetry: SQLite's single-writer
// lock is the one genuinely concurrent resource this repo touches.
func withRetry(fn func() error) error {
	const maxRetries = 5
	var err error
	for range maxRetries {
		if err = fn(); err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("rundb: database is locked after %d attempts: %w", maxRetries, err)
}

func diagnosticsJSON(diags []string) (datatypes.JSON, error) {
	if len(diags) == 0 {
		return datatypes.JSON("[]"), nil
	}
	b := []byte(`["`)
	for i, d := range diags {
		if i > 0 {
			b = append(b, `","`...)
		}
		b = append(b, escapeJSONString(d)...)
	}
	b = append(b, `"]`...)
	return datatypes.JSON(b), nil
}

// escapeJSONString escapes the minimal set of bytes the ledger's own
// diagnostic strings can ever contain (quotes, backslashes, control
// characters), avoiding a dependency on encoding/json for a single
// string-array column.
func escapeJSONString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
