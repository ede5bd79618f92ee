// Package bundle persists model bundles (the dedup threshold and the scoring
// encoders + classifier) as opaque, checksummed blobs.
package bundle

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by Store.Load when no bundle has been saved under
// the requested name.
var ErrNotFound = errors.New("bundle: not found")

// Store loads and saves named bundle blobs.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a Store backend.
type Options struct {
	Driver      string
	Dir         string // file driver
	DatabaseURL string // sqlite path or postgres connection string
}

// Open returns the Store for opts.Driver, migrated and ready to use.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFile, "":
		return NewFileStore(opts.Dir)
	case DriverSQLite:
		st, err := NewSQLite(opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	case DriverPostgres:
		st, err := NewPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("bundle: unknown driver %q", opts.Driver)
	}
}
