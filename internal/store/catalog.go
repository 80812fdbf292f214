// Package store wraps the Postgres-backed catalog and draft persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/champion"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
)

// CatalogStore persists the champion catalog and the ingester's version marker.
type CatalogStore struct {
	db *sqlx.DB
}

// NewCatalogStore wraps an already-connected database handle.
func NewCatalogStore(db *sqlx.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

type championRow struct {
	ID                           int    `db:"id"`
	RiotID                       string `db:"riot_id"`
	Name                         string `db:"name"`
	DefaultSkinImagePath         string `db:"default_skin_image_path"`
	CenteredDefaultSkinImagePath string `db:"centered_default_skin_image_path"`
	RolesJSON                    []byte `db:"roles_json"`
}

func (r championRow) toChampion() (champion.Champion, error) {
	c := champion.Champion{
		ID:                           r.ID,
		RiotID:                       r.RiotID,
		Name:                         r.Name,
		DefaultSkinImagePath:         r.DefaultSkinImagePath,
		CenteredDefaultSkinImagePath: r.CenteredDefaultSkinImagePath,
	}

	if len(r.RolesJSON) > 0 {
		if err := json.Unmarshal(r.RolesJSON, &c.Roles); err != nil {
			return champion.Champion{}, fmt.Errorf("store: decode roles_json for %s: %w", r.RiotID, err)
		}
	}

	return c, nil
}

// ListChampions returns the full catalog snapshot.
func (s *CatalogStore) ListChampions(ctx context.Context) ([]champion.Champion, error) {
	var rows []championRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, riot_id, name, default_skin_image_path, centered_default_skin_image_path, roles_json
		 FROM champion`)
	if err != nil {
		return nil, fmt.Errorf("store: list champions: %w", err)
	}

	champions := make([]champion.Champion, 0, len(rows))
	for _, row := range rows {
		c, err := row.toChampion()
		if err != nil {
			return nil, err
		}
		champions = append(champions, c)
	}

	return champions, nil
}

// Exists reports whether a catalog entry with the given upstream textual id
// (riot_id) is already present.
func (s *CatalogStore) Exists(ctx context.Context, riotID string) (bool, error) {
	var found string
	err := s.db.GetContext(ctx, &found, `SELECT riot_id FROM champion WHERE riot_id = $1`, riotID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: check champion exists: %w", err)
	}
	return true, nil
}

// ChampionInsertion holds the fields required to insert a new catalog entry.
type ChampionInsertion struct {
	RiotID                       string
	Name                         string
	DefaultSkinImagePath         string
	CenteredDefaultSkinImagePath string
}

// Insert adds a brand new catalog entry.
func (s *CatalogStore) Insert(ctx context.Context, c ChampionInsertion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO champion (riot_id, name, default_skin_image_path, centered_default_skin_image_path)
		 VALUES ($1, $2, $3, $4)`,
		c.RiotID, c.Name, c.DefaultSkinImagePath, c.CenteredDefaultSkinImagePath)
	if err != nil {
		return fmt.Errorf("store: insert champion %s: %w", c.RiotID, err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing catalog entry, keyed by riot_id.
func (s *CatalogStore) Update(ctx context.Context, c ChampionInsertion) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE champion SET name = $1, default_skin_image_path = $2, centered_default_skin_image_path = $3
		 WHERE riot_id = $4`,
		c.Name, c.DefaultSkinImagePath, c.CenteredDefaultSkinImagePath, c.RiotID)
	if err != nil {
		return fmt.Errorf("store: update champion %s: %w", c.RiotID, err)
	}
	return nil
}

// Upsert inserts c if it is not yet known by riot_id, or updates it otherwise.
func (s *CatalogStore) Upsert(ctx context.Context, c ChampionInsertion) error {
	exists, err := s.Exists(ctx, c.RiotID)
	if err != nil {
		return err
	}

	if exists {
		return s.Update(ctx, c)
	}
	return s.Insert(ctx, c)
}

// SetRoles updates an existing entry's role set, looking it up by name first
// and falling back to alias on miss. A double miss is logged and skipped.
func (s *CatalogStore) SetRoles(ctx context.Context, name, alias string, roles []champion.Role) error {
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("store: encode roles for %s: %w", name, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE champion SET roles_json = $1 WHERE name = $2`, rolesJSON, name)
	if err != nil {
		return fmt.Errorf("store: set roles by name %s: %w", name, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	res, err = s.db.ExecContext(ctx,
		`UPDATE champion SET roles_json = $1 WHERE name = $2`, rolesJSON, alias)
	if err != nil {
		return fmt.Errorf("store: set roles by alias %s: %w", alias, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	logging.Warn(ctx, "role update matched neither name nor alias, skipping",
		zap.String("name", name), zap.String("alias", alias))
	return nil
}

// CurrentVersion returns the ingester's stored version marker, if any.
func (s *CatalogStore) CurrentVersion(ctx context.Context) (string, bool, error) {
	var version string
	err := s.db.GetContext(ctx, &version, `SELECT version FROM ingest_version LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read current version: %w", err)
	}
	return version, true, nil
}

// SetCurrentVersion replaces the stored version marker.
func (s *CatalogStore) SetCurrentVersion(ctx context.Context, version string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ingest_version`)
	if err != nil {
		return fmt.Errorf("store: clear current version: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO ingest_version (version) VALUES ($1)`, version)
	if err != nil {
		return fmt.Errorf("store: set current version: %w", err)
	}
	return nil
}
