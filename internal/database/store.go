package database

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/smarttransit/bus-reservation/internal/config"
	"github.com/smarttransit/bus-reservation/internal/models"
)

// ErrUnknownDriver is returned for an unsupported storage driver
var ErrUnknownDriver = errors.New("unknown storage driver")

// LedgerStore loads and saves the whole reservation ledger
type LedgerStore interface {
	Load(ctx context.Context) (*models.Ledger, error)
	Save(ctx context.Context, ledger *models.Ledger) error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenLedgerStore builds the store selected by the storage driver. The
// returned closer releases the database pool for the postgres driver.
func OpenLedgerStore(ctx context.Context, storage config.StorageConfig, db config.DatabaseConfig) (LedgerStore, io.Closer, error) {
	switch storage.Driver {
	case "", "file":
		codec, err := NewCodec(storage.Codec)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewFileStore(storage.DataDir, codec)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	case "postgres":
		conn, err := NewConnection(db)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(conn)
		if err := store.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, conn, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownDriver, storage.Driver)
	}
}
