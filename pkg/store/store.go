// Package store persists named topologies.
//
// Two backends implement the same interface: SQLiteStore for local,
// single-user CLI work and MongoStore for the server. Both store the wire
// Document form, so whichever backend is configured the CLI and API see the
// same data model.
package store

import (
	"context"
	"time"

	"github.com/graphnist/graphnist/pkg/topology"
)

// Info describes a stored topology without loading its contents.
type Info struct {
	Name      string    `json:"name" bson:"name"`
	Devices   int       `json:"devices" bson:"devices"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the persistence interface for named topologies.
//
// Load returns an error with code TOPOLOGY_NOT_FOUND (pkg/errors) for a
// missing name. Save overwrites an existing topology of the same name.
type Store interface {
	Save(ctx context.Context, name string, doc *topology.Document) error
	Load(ctx context.Context, name string) (*topology.Document, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, name string) error

	// SavePositions updates device coordinates of a stored topology in
	// place, leaving devices and connections untouched. Unknown device IDs
	// are ignored.
	SavePositions(ctx context.Context, name string, positions map[string]topology.Point) error

	Close() error
}
