// Package cmd provides shared initialization for the aidflow binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/reliefops/aidflow/pkg/persistence"
	"github.com/reliefops/aidflow/pkg/persistence/file"
	"github.com/reliefops/aidflow/pkg/persistence/postgresql"
)

// NewPersistence selects the storage backend by URL scheme: postgres URLs
// get the PostgreSQL backend, anything else is treated as a file root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return store
	default:
		return file.NewPersistence(databaseURL)
	}
}
