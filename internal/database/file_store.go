package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smarttransit/bus-reservation/internal/models"
)

// Base names of the three ledger files
const (
	busFileName    = "buses"
	ticketFileName = "tickets"
	billFileName   = "busbills"
)

// FileStore keeps the ledger as three documents in a directory, one per
// table, each carrying its own next-ID counter
type FileStore struct {
	dir   string
	codec Codec
}

// NewFileStore creates a file store rooted at dir, creating it if needed
func NewFileStore(dir string, codec Codec) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir, codec: codec}, nil
}

// Dir returns the data directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads all three tables. Missing files load as empty tables.
func (s *FileStore) Load(ctx context.Context) (*models.Ledger, error) {
	ledger := models.NewLedger()

	if err := s.read(ctx, busFileName, &ledger.Buses); err != nil {
		return nil, err
	}
	if err := s.read(ctx, ticketFileName, &ledger.Tickets); err != nil {
		return nil, err
	}
	if err := s.read(ctx, billFileName, &ledger.Bills); err != nil {
		return nil, err
	}

	ledger.Normalize()
	return ledger, nil
}

// Save writes all three tables. Every table is encoded to a temp file
// before any file is replaced, and if a replace fails the tables already
// replaced are put back, so the directory holds either the old ledger or
// the new one.
func (s *FileStore) Save(ctx context.Context, ledger *models.Ledger) error {
	tables := []struct {
		name  string
		table interface{}
	}{
		{busFileName, ledger.Buses},
		{ticketFileName, ledger.Tickets},
		{billFileName, ledger.Bills},
	}

	staged := make([]stagedFile, 0, len(tables))
	defer func() {
		// Leftover temp files of a failed save; renamed ones are already gone
		for _, f := range staged {
			os.Remove(f.tmp)
		}
	}()

	for _, t := range tables {
		f, err := s.stage(ctx, t.name, t.table)
		if err != nil {
			return err
		}
		staged = append(staged, f)
	}

	return s.commit(staged)
}

type stagedFile struct {
	name string
	tmp  string
}

// previousFile is a table file as it was before commit replaced it
type previousFile struct {
	name    string
	data    []byte
	existed bool
}

func (s *FileStore) stage(ctx context.Context, name string, table interface{}) (stagedFile, error) {
	if err := ctx.Err(); err != nil {
		return stagedFile{}, err
	}

	data, err := s.codec.Marshal(table)
	if err != nil {
		return stagedFile{}, fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := s.writeTemp(name, data)
	if err != nil {
		return stagedFile{}, err
	}
	return stagedFile{name: name, tmp: tmp}, nil
}

func (s *FileStore) commit(staged []stagedFile) error {
	replaced := make([]previousFile, 0, len(staged))

	for _, f := range staged {
		target := s.path(f.name)

		prev := previousFile{name: f.name}
		data, err := os.ReadFile(target)
		switch {
		case err == nil:
			prev.data, prev.existed = data, true
		case !errors.Is(err, fs.ErrNotExist):
			return errors.Join(fmt.Errorf("failed to read %s: %w", f.name, err), s.restore(replaced))
		}

		if err := os.Rename(f.tmp, target); err != nil {
			return errors.Join(fmt.Errorf("failed to replace %s: %w", f.name, err), s.restore(replaced))
		}
		replaced = append(replaced, prev)
	}
	return nil
}

// restore puts replaced tables back in reverse order
func (s *FileStore) restore(replaced []previousFile) error {
	var errs []error
	for i := len(replaced) - 1; i >= 0; i-- {
		prev := replaced[i]
		target := s.path(prev.name)

		if !prev.existed {
			if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("failed to remove %s: %w", prev.name, err))
			}
			continue
		}

		tmp, err := s.writeTemp(prev.name, prev.data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Rename(tmp, target); err != nil {
			os.Remove(tmp)
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", prev.name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+s.codec.Extension())
}

func (s *FileStore) read(ctx context.Context, name string, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := s.codec.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// writeTemp writes data to a synced temp file next to the table file
func (s *FileStore) writeTemp(name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return tmpName, nil
}
