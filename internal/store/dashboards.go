package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-metric-engine/internal/codec"
	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

// DashboardInfo summarizes a stored declaration set.
type DashboardInfo struct {
	Name        string    `json:"name"`
	Version     string    `json:"version,omitempty"`
	Description string    `json:"description,omitempty"`
	Metrics     int       `json:"metrics"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SaveDashboard stores set under its name as a CBOR blob, replacing an earlier version.
func (s *Store) SaveDashboard(ctx context.Context, set *model.DeclarationSet) error {
	if set.Name == "" {
		return engerrors.StorageFailed("save_dashboard", fmt.Errorf("dashboard name is required"))
	}
	blob, err := codec.Marshal(set)
	if err != nil {
		return engerrors.StorageFailed("save_dashboard", err)
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx, `INSERT INTO dashboards (name, version, description, metrics, spec, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET version = excluded.version, description = excluded.description,
			metrics = excluded.metrics, spec = excluded.spec, updated_at = excluded.updated_at`,
		set.Name, set.Version, set.Description, len(set.Metrics), blob, now, now)
	if err != nil {
		return engerrors.StorageFailed("save_dashboard", err)
	}
	return nil
}

// GetDashboard loads the declaration set stored under name.
func (s *Store) GetDashboard(ctx context.Context, name string) (*model.DeclarationSet, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT spec FROM dashboards WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, engerrors.StorageFailed("get_dashboard", err)
	}
	var set model.DeclarationSet
	if err := codec.Unmarshal(blob, &set); err != nil {
		return nil, engerrors.StorageFailed("get_dashboard", err)
	}
	return &set, nil
}

// ListDashboards returns every stored dashboard, most recently updated first.
func (s *Store) ListDashboards(ctx context.Context) ([]DashboardInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, COALESCE(version, ''), COALESCE(description, ''), metrics, created_at, updated_at
		FROM dashboards ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, engerrors.StorageFailed("list_dashboards", err)
	}
	defer rows.Close()

	var out []DashboardInfo
	for rows.Next() {
		var d DashboardInfo
		if err := rows.Scan(&d.Name, &d.Version, &d.Description, &d.Metrics, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, engerrors.StorageFailed("list_dashboards", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, engerrors.StorageFailed("list_dashboards", err)
	}
	return out, nil
}
