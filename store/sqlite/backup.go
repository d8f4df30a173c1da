/*
backup.go - Backup and restore of the store file

PURPOSE:
  The whole persisted state is one SQLite file, so backup is a file copy
  under exclusive access and restore is a validated file replacement.

EXCLUSIVITY:
  Both operations hold the store's write lock for their full duration, so
  no posting can interleave with the copy. The lock is released
  unconditionally whether the copy succeeds or fails.

RESTORE SAFETY:
  The source file is validated BEFORE the active store is touched: SQLite
  magic header, schema-version marker, and presence of all entity tables.
  A validation failure returns CorruptStoreError and leaves the active
  store exactly as it was.
*/
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mow/finance-engine/ledger"
)

// sqliteMagic is the 16-byte header every well-formed SQLite file begins with.
var sqliteMagic = []byte("SQLite format 3\x00")

var requiredTables = []string{"products", "inventory_movements", "sales", "tax_rates", "meta"}

// ErrMemoryStore is returned when backup/restore is attempted on a store
// that has no backing file.
var ErrMemoryStore = errors.New("backup requires a file-backed store")

// Backup copies the store to a timestamp-named file under dir and returns
// the destination path. The WAL is checkpointed first so the main file
// alone carries the complete state.
func (s *Store) Backup(ctx context.Context, dir string) (string, error) {
	if s.path == ":memory:" {
		return "", ErrMemoryStore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("failed to checkpoint before backup: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	dest := filepath.Join(dir, fmt.Sprintf("backup_%s.db", time.Now().UTC().Format("20060102_150405")))
	if err := copyFile(s.path, dest); err != nil {
		return "", fmt.Errorf("failed to copy store: %w", err)
	}
	return dest, nil
}

// Restore replaces the active store with the file at source. The source is
// validated first; an invalid file fails with CorruptStoreError and the
// active store stays untouched. On success the database handle is
// reopened over the restored file.
func (s *Store) Restore(ctx context.Context, source string) error {
	if s.path == ":memory:" {
		return ErrMemoryStore
	}

	if err := validateStoreFile(ctx, source); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stage next to the active file so the final replacement is a rename.
	staged := s.path + ".restore"
	if err := copyFile(source, staged); err != nil {
		return fmt.Errorf("failed to stage restore: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(staged)
		return fmt.Errorf("failed to close active store: %w", err)
	}

	// Stale WAL/SHM siblings belong to the old file.
	os.Remove(s.path + "-wal")
	os.Remove(s.path + "-shm")

	if err := os.Rename(staged, s.path); err != nil {
		// Active file was not replaced; reopen it.
		os.Remove(staged)
		db, openErr := open(s.path)
		if openErr != nil {
			return errors.Join(err, openErr)
		}
		s.db = db
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	db, err := open(s.path)
	if err != nil {
		return fmt.Errorf("failed to reopen restored store: %w", err)
	}
	s.db = db
	return nil
}

// validateStoreFile checks that path is a well-formed store: SQLite magic,
// matching schema-version marker, and all entity tables present.
func validateStoreFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ledger.CorruptStoreError{Path: path, Reason: "cannot open file"}
	}
	header := make([]byte, len(sqliteMagic))
	_, readErr := io.ReadFull(f, header)
	f.Close()
	if readErr != nil || !bytes.Equal(header, sqliteMagic) {
		return &ledger.CorruptStoreError{Path: path, Reason: "not a SQLite database"}
	}

	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return &ledger.CorruptStoreError{Path: path, Reason: "cannot open database"}
	}
	defer db.Close()

	var version string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		return &ledger.CorruptStoreError{Path: path, Reason: "missing schema version marker"}
	}
	if version != SchemaVersion {
		return &ledger.CorruptStoreError{
			Path:   path,
			Reason: fmt.Sprintf("incompatible schema version %q (want %q)", version, SchemaVersion),
		}
	}

	for _, table := range requiredTables {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			return &ledger.CorruptStoreError{Path: path, Reason: fmt.Sprintf("missing table %q", table)}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
