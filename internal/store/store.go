package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Record file names inside the data directory. These layouts are a durable
// contract shared with the administrative tooling; renaming a file or
// reordering columns breaks existing deployments.
const (
	stockFile     = "stock.csv"
	balancesFile  = "balances.csv"
	purchasesFile = "purchases.csv"
	combosFile    = "combos.csv"
)

// Store persists all flat record files under one data directory. Persistence
// is whole-file rewrite: each mutation replaces the full record set. The
// store holds no business logic and is not safe for concurrent writers; the
// transaction coordinator serializes access.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir, logger: util.GetLogger()}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readRows loads every row of a CSV record file. A missing file is an empty
// record set, not an error.
func (s *Store) readRows(name string) ([][]string, error) {
	f, err := os.Open(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return rows, nil
}

// writeRows replaces the full contents of a CSV record file.
func (s *Store) writeRows(name string, rows [][]string) error {
	f, err := os.Create(s.path(name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.Flush()
	return w.Error()
}

// appendRow appends one row to a CSV record file, writing header first when
// the file is new or empty.
func (s *Store) appendRow(name string, header, row []string) error {
	path := s.path(name)

	info, err := os.Stat(path)
	needHeader := header != nil && (os.IsNotExist(err) || (err == nil && info.Size() == 0))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", name, err)
		}
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to append to %s: %w", name, err)
	}
	w.Flush()
	return w.Error()
}
