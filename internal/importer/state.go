package importer

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StateDB remembers which export files were imported so unchanged files are
// skipped on the next run.
type StateDB struct {
	db *sql.DB
}

// ImportedFile is a row of the state database.
type ImportedFile struct {
	Path       string
	Size       int64
	Hash       string
	Records    int
	ImportedAt time.Time
}

// OpenStateDB opens (or creates) dir/import-state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "import-state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS imported_files (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		records     INTEGER NOT NULL DEFAULT 0,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}
	return &StateDB{db: db}, nil
}

// IsImported reports whether relPath was imported with the same size and hash.
func (s *StateDB) IsImported(relPath string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM imported_files WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", relPath, err)
	}
	return count > 0, nil
}

// MarkImported records a successful import. A changed file replaces its old row.
func (s *StateDB) MarkImported(relPath string, size int64, hash string, records int) error {
	if _, err := s.db.Exec(
		`INSERT OR REPLACE INTO imported_files (path, size, hash, records) VALUES (?, ?, ?, ?)`,
		relPath, size, hash, records,
	); err != nil {
		return fmt.Errorf("marking %s: %w", relPath, err)
	}
	return nil
}

// Files lists every imported file, most recent first.
func (s *StateDB) Files() ([]ImportedFile, error) {
	rows, err := s.db.Query(
		`SELECT path, size, hash, records, imported_at FROM imported_files ORDER BY imported_at DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("listing imported files: %w", err)
	}
	defer rows.Close()

	var files []ImportedFile
	for rows.Next() {
		var f ImportedFile
		if err := rows.Scan(&f.Path, &f.Size, &f.Hash, &f.Records, &f.ImportedAt); err != nil {
			return nil, fmt.Errorf("scanning imported file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile returns the hex SHA-256 of the file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
