package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	_ "modernc.org/sqlite"

	"github.com/graphnist/graphnist/pkg/errors"
	"github.com/graphnist/graphnist/pkg/topology"
)

// SQLiteStore persists topologies in a local SQLite database. Devices and
// connections get their own tables so positions can be updated without
// rewriting whole documents.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and runs the
// schema migration.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to open database %s", path)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to migrate database %s", path)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topologies (
		name TEXT PRIMARY KEY,
		viewport_min_x REAL,
		viewport_min_y REAL,
		viewport_max_x REAL,
		viewport_max_y REAL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS devices (
		topology TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		w REAL NOT NULL DEFAULT 0,
		h REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (topology, id),
		FOREIGN KEY (topology) REFERENCES topologies(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS connections (
		topology TEXT NOT NULL,
		a TEXT NOT NULL,
		b TEXT NOT NULL,
		PRIMARY KEY (topology, a, b),
		FOREIGN KEY (topology) REFERENCES topologies(name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_devices_topology ON devices(topology);
	CREATE INDEX IF NOT EXISTS idx_connections_topology ON connections(topology);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save overwrites the named topology with doc in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, name string, doc *topology.Document) error {
	if err := errors.ValidateTopologyName(name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var minX, minY, maxX, maxY sql.NullFloat64
	if doc.Viewport != nil {
		minX = sql.NullFloat64{Float64: doc.Viewport.MinX, Valid: true}
		minY = sql.NullFloat64{Float64: doc.Viewport.MinY, Valid: true}
		maxX = sql.NullFloat64{Float64: doc.Viewport.MaxX, Valid: true}
		maxY = sql.NullFloat64{Float64: doc.Viewport.MaxY, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO topologies (name, viewport_min_x, viewport_min_y, viewport_max_x, viewport_max_y, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			viewport_min_x = excluded.viewport_min_x,
			viewport_min_y = excluded.viewport_min_y,
			viewport_max_x = excluded.viewport_max_x,
			viewport_max_y = excluded.viewport_max_y,
			updated_at = CURRENT_TIMESTAMP
	`, name, minX, minY, maxX, maxY)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to upsert topology %s", name)
	}

	// Replace the full device and connection sets.
	if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE topology = ?`, name); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to clear devices for %s", name)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE topology = ?`, name); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to clear connections for %s", name)
	}

	for _, d := range doc.Devices {
		x, y := d.X, d.Y
		if p, ok := doc.Positions[d.ID]; ok {
			x, y = p.X, p.Y
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO devices (topology, id, name, type, x, y, w, h)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, name, d.ID, d.Name, d.Type, x, y, d.W, d.H)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStore, err, "failed to insert device %s", d.ID)
		}
	}

	for _, c := range doc.Connections {
		edge := topology.NewConnection(c.A, c.B)
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO connections (topology, a, b) VALUES (?, ?, ?)
		`, name, edge.A, edge.B)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStore, err, "failed to insert connection %s-%s", edge.A, edge.B)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to commit save of %s", name)
	}
	return nil
}

// Load reads the named topology.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*topology.Document, error) {
	var minX, minY, maxX, maxY sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT viewport_min_x, viewport_min_y, viewport_max_x, viewport_max_y
		FROM topologies WHERE name = ?
	`, name).Scan(&minX, &minY, &maxX, &maxY)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeTopologyNotFound, "topology %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to query topology %s", name)
	}

	doc := &topology.Document{Name: name}
	if minX.Valid && minY.Valid && maxX.Valid && maxY.Valid {
		doc.Viewport = &topology.Viewport{
			MinX: minX.Float64, MinY: minY.Float64,
			MaxX: maxX.Float64, MaxY: maxY.Float64,
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, x, y, w, h FROM devices WHERE topology = ? ORDER BY id
	`, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to query devices for %s", name)
	}
	defer rows.Close()

	for rows.Next() {
		var rec topology.DeviceRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Type, &rec.X, &rec.Y, &rec.W, &rec.H); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to scan device")
		}
		doc.Devices = append(doc.Devices, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "error iterating devices")
	}

	connRows, err := s.db.QueryContext(ctx, `
		SELECT a, b FROM connections WHERE topology = ? ORDER BY a, b
	`, name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to query connections for %s", name)
	}
	defer connRows.Close()

	for connRows.Next() {
		var c topology.Connection
		if err := connRows.Scan(&c.A, &c.B); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to scan connection")
		}
		doc.Connections = append(doc.Connections, c)
	}
	if err := connRows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "error iterating connections")
	}

	return doc, nil
}

// List returns summaries of every stored topology, most recent first.
func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, COUNT(d.id), t.updated_at
		FROM topologies t
		LEFT JOIN devices d ON d.topology = t.name
		GROUP BY t.name
		ORDER BY t.updated_at DESC
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to list topologies")
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Devices, &info.UpdatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to scan topology info")
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "error iterating topologies")
	}
	return infos, nil
}

// Delete removes the named topology and its devices and connections.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topologies WHERE name = ?`, name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to delete topology %s", name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeTopologyNotFound, "topology %q not found", name)
	}
	// Cascade is not guaranteed without foreign_keys pragma; clean up
	// explicitly so the tables stay consistent either way.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE topology = ?`, name); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to delete devices for %s", name)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE topology = ?`, name); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to delete connections for %s", name)
	}
	return nil
}

// SavePositions updates coordinates of existing devices. Unknown IDs are
// ignored, matching how layouts are applied in memory.
func (s *SQLiteStore) SavePositions(ctx context.Context, name string, positions map[string]topology.Point) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topologies WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to check topology %s", name)
	}
	if exists == 0 {
		return errors.New(errors.ErrCodeTopologyNotFound, "topology %q not found", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for id, p := range positions {
		_, err := tx.ExecContext(ctx, `
			UPDATE devices SET x = ?, y = ? WHERE topology = ? AND id = ?
		`, p.X, p.Y, name, id)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStore, err, "failed to update position of %s", id)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE topologies SET updated_at = CURRENT_TIMESTAMP WHERE name = ?
	`, name); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to touch topology %s", name)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to commit positions for %s", name)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
