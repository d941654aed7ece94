// Package store keeps the registry of wireless devices that were paired or
// connected at least once.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pavi2410/droidkit/models"
)

//go:embed migrations.sql
var migrations string

const memoryPath = ":memory:"

type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open initializes the SQLite database at path, creating its directory and
// applying migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection keeps :memory: databases alive across calls and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	if _, err := db.Exec(migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Named("store").Info("database initialized", zap.String("path", path))
	return &Store{db: db, logger: logger.Named("store"), now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert records a successful link to ip:port. An existing row keeps its ID
// and has its name, method and timestamp refreshed.
func (s *Store) Upsert(ctx context.Context, name, ip string, port int, method string) (*models.PairedDevice, error) {
	d := &models.PairedDevice{
		ID:            uuid.NewString(),
		Name:          name,
		IP:            ip,
		Port:          port,
		PairingMethod: method,
		LastConnected: s.now().UnixMilli(),
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO paired_devices (id, name, ip, port, pairing_method, last_connected)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (ip, port) DO UPDATE SET
			name = excluded.name,
			pairing_method = excluded.pairing_method,
			last_connected = excluded.last_connected
		RETURNING id`,
		d.ID, d.Name, d.IP, d.Port, d.PairingMethod, d.LastConnected,
	)
	if err := row.Scan(&d.ID); err != nil {
		return nil, fmt.Errorf("upsert paired device %s:%d: %w", ip, port, err)
	}

	s.logger.Debug("paired device recorded",
		zap.String("id", d.ID),
		zap.String("ip", ip),
		zap.Int("port", port),
		zap.String("method", method),
	)
	return d, nil
}

// List returns every paired device, most recently connected first.
func (s *Store) List(ctx context.Context) ([]models.PairedDevice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ip, port, pairing_method, last_connected
		FROM paired_devices
		ORDER BY last_connected DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list paired devices: %w", err)
	}
	defer rows.Close()

	devices := []models.PairedDevice{}
	for rows.Next() {
		var d models.PairedDevice
		if err := rows.Scan(&d.ID, &d.Name, &d.IP, &d.Port, &d.PairingMethod, &d.LastConnected); err != nil {
			return nil, fmt.Errorf("scan paired device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// PairedIPs returns the set of addresses with at least one paired record.
func (s *Store) PairedIPs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT ip FROM paired_devices`)
	if err != nil {
		return nil, fmt.Errorf("list paired ips: %w", err)
	}
	defer rows.Close()

	ips := make(map[string]bool)
	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			return nil, fmt.Errorf("scan paired ip: %w", err)
		}
		ips[ip] = true
	}
	return ips, rows.Err()
}

// Delete removes a record by ID. Deleting a missing ID is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM paired_devices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete paired device %s: %w", id, err)
	}
	return nil
}
