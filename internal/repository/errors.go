// Package repository defines the stores used by the service layer: the
// in-memory dataset registry and the optional MySQL-backed run history. The
// sentinel values below let higher layers such as handlers distinguish
// between failure scenarios. ErrDatasetNotFound wraps inventory.ErrNotFound
// so callers can test either value with errors.Is.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
)

// ErrDatasetNotFound is returned when no dataset is registered under an id.
// Handlers should translate this into an HTTP 404 response.
var ErrDatasetNotFound = fmt.Errorf("dataset %w", inventory.ErrNotFound)

// ErrDatasetExists is returned when a dataset id is already taken and the
// caller did not ask for an overwrite. Handlers should translate this into
// an HTTP 409 response.
var ErrDatasetExists = errors.New("dataset already exists")

// ErrRunsDisabled is returned by the run history when no database is configured.
var ErrRunsDisabled = errors.New("run history disabled")
