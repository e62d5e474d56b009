package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"post_syncer/internal/domain"
)

const (
	KeyExternalSiteURL = "external_site_url"
	KeyContentTypeName = "content_type_name"
	KeyCategoryFilter  = "category_filter"
	KeyTagFilter       = "tag_filter"
	KeySyncLog         = "sync_log"
)

var syncConfigKeys = []string{KeyExternalSiteURL, KeyContentTypeName, KeyCategoryFilter, KeyTagFilter}

type setting struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// SettingsStore is the key/value holder for the sync settings and the last run log.
type SettingsStore struct {
	db *sqlx.DB
}

func NewSettingsStore(db *sqlx.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// GetSyncConfig returns stored values verbatim; missing keys read as empty strings.
func (s *SettingsStore) GetSyncConfig(ctx context.Context) (domain.SyncConfig, error) {
	var rows []setting
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows,
		"SELECT key, value FROM settings WHERE key = ANY($1)", pq.Array(syncConfigKeys))
	if err != nil {
		return domain.SyncConfig{}, err
	}

	var cfg domain.SyncConfig
	for _, r := range rows {
		switch r.Key {
		case KeyExternalSiteURL:
			cfg.ExternalSiteURL = r.Value
		case KeyContentTypeName:
			cfg.ContentTypeName = r.Value
		case KeyCategoryFilter:
			cfg.CategoryFilter = r.Value
		case KeyTagFilter:
			cfg.TagFilter = r.Value
		}
	}
	return cfg, nil
}

// SaveSyncConfig stores all four keys as given, with no validation.
func (s *SettingsStore) SaveSyncConfig(ctx context.Context, cfg domain.SyncConfig) error {
	return s.upsert(ctx, syncConfigPairs(cfg), false)
}

// SeedSyncConfig fills only keys that are missing or empty.
func (s *SettingsStore) SeedSyncConfig(ctx context.Context, cfg domain.SyncConfig) error {
	return s.upsert(ctx, syncConfigPairs(cfg), true)
}

func (s *SettingsStore) GetLog(ctx context.Context) ([]string, error) {
	var raw string
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &raw,
		"SELECT value FROM settings WHERE key = $1", KeySyncLog)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := []string{}
	if raw == "" {
		return lines, nil
	}
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode sync log: %w", err)
	}
	return lines, nil
}

// SaveLog replaces the stored log with lines.
func (s *SettingsStore) SaveLog(ctx context.Context, lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode sync log: %w", err)
	}
	return s.upsert(ctx, []setting{{Key: KeySyncLog, Value: string(raw)}}, false)
}

func (s *SettingsStore) upsert(ctx context.Context, pairs []setting, onlyEmpty bool) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()`
	if onlyEmpty {
		query += `
		WHERE settings.value = ''`
	}

	exec := GetExecutor(ctx, s.db)
	for _, p := range pairs {
		if onlyEmpty && p.Value == "" {
			continue
		}
		if _, err := exec.ExecContext(ctx, query, p.Key, p.Value); err != nil {
			return fmt.Errorf("save setting %s: %w", p.Key, err)
		}
	}
	return nil
}

func syncConfigPairs(cfg domain.SyncConfig) []setting {
	return []setting{
		{Key: KeyExternalSiteURL, Value: cfg.ExternalSiteURL},
		{Key: KeyContentTypeName, Value: cfg.ContentTypeName},
		{Key: KeyCategoryFilter, Value: cfg.CategoryFilter},
		{Key: KeyTagFilter, Value: cfg.TagFilter},
	}
}
