// Package repository opens the storage backend selected by configuration and
// hands out one store per aggregate over it.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/glassinv/internal/db"
	"github.com/vbonduro/glassinv/internal/store"
)

// Driver identifies a storage backend.
type Driver string

const (
	DriverMemory Driver = "memory" // private in-memory database, gone on Close
	DriverSQLite Driver = "sqlite" // embedded sqlite file at Options.Path
)

type Options struct {
	Driver Driver
	Path   string
}

// Set bundles every store over one open database.
type Set struct {
	DB              *sql.DB
	GlassItems      *store.GlassItemStore
	Inventory       *store.InventoryStore
	Locations       *store.LocationStore
	PurchaseRecords *store.PurchaseRecordStore
	ProjectPlans    *store.ProjectPlanStore
	ProjectLogs     *store.ProjectLogStore
	Images          *store.UserImageStore
	Tags            *store.UserTagsStore
	Settings        *store.SettingsStore
}

// Open connects to the backend named by opts.Driver and applies pending
// schema migrations. An empty driver means sqlite.
func Open(ctx context.Context, opts Options) (*Set, error) {
	var (
		database *sql.DB
		err      error
	)
	switch opts.Driver {
	case DriverMemory:
		database, err = db.OpenMemory()
	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires a path")
		}
		database, err = db.Open(opts.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to reach %s storage: %w", opts.Driver, err)
	}
	return New(database), nil
}

// New wraps an already migrated database.
func New(database *sql.DB) *Set {
	return &Set{
		DB:              database,
		GlassItems:      store.NewGlassItemStore(database),
		Inventory:       store.NewInventoryStore(database),
		Locations:       store.NewLocationStore(database),
		PurchaseRecords: store.NewPurchaseRecordStore(database),
		ProjectPlans:    store.NewProjectPlanStore(database),
		ProjectLogs:     store.NewProjectLogStore(database),
		Images:          store.NewUserImageStore(database),
		Tags:            store.NewUserTagsStore(database),
		Settings:        store.NewSettingsStore(database),
	}
}

func (s *Set) Close() error {
	return s.DB.Close()
}
