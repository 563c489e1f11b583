package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/capturelab/capture/internal/version"
)

// Migration System Overview:
//
// Schema version is stored in system_setting. Fresh databases are
// initialized from the embedded LATEST.sql for the active driver; already
// initialized databases are left alone when the stored schema version
// matches the module version.
//
// Migration Files:
// - Location: store/migration/{driver}/LATEST.sql
// - LATEST.sql: Full schema for new installations

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	// systemSettingSchemaVersion is the system_setting key holding the
	// schema version.
	systemSettingSchemaVersion = "schema_version"
)

// Migrate initializes the database schema when needed.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}

	if !initialized {
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if err := s.setSchemaVersion(ctx, version.Version); err != nil {
			return errors.Wrap(err, "failed to record schema version")
		}
		slog.Info("database initialized", slog.String("version", version.Version))
		return nil
	}

	current, err := s.getSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if current != version.Version {
		slog.Warn("schema version differs from module version",
			slog.String("schema", current), slog.String("module", version.Version))
	}
	return nil
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	filePath := fmt.Sprintf("migration/%s/%s", s.profile.Driver, LatestSchemaFileName)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema %q", filePath)
	}

	stmt := string(buf)
	if _, err := s.driver.GetDB().ExecContext(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to execute latest schema")
	}
	return nil
}

func (s *Store) getSchemaVersion(ctx context.Context) (string, error) {
	var value string
	row := s.driver.GetDB().QueryRowContext(ctx,
		"SELECT value FROM system_setting WHERE name = $1", systemSettingSchemaVersion)
	if s.profile.Driver == "sqlite" {
		row = s.driver.GetDB().QueryRowContext(ctx,
			"SELECT value FROM system_setting WHERE name = ?", systemSettingSchemaVersion)
	}
	if err := row.Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v string) error {
	stmt := "INSERT INTO system_setting (name, value) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value"
	if s.profile.Driver == "sqlite" {
		stmt = "INSERT INTO system_setting (name, value) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET value = excluded.value"
	}
	_, err := s.driver.GetDB().ExecContext(ctx, stmt, systemSettingSchemaVersion, v)
	return err
}
