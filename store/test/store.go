// Package test provides store fixtures shared by the package tests.
package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/capturelab/capture/internal/profile"
	"github.com/capturelab/capture/internal/version"
	"github.com/capturelab/capture/store"
	"github.com/capturelab/capture/store/db"
)

// NewTestingStore opens a fresh migrated store backed by a throwaway sqlite
// database. Set CAPTURE_TEST_DSN to a postgres DSN to run the same tests
// against postgres instead.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func getTestingProfile(t *testing.T) *profile.Profile {
	dir := t.TempDir()
	p := &profile.Profile{
		Mode:    "dev",
		Data:    dir,
		Driver:  "sqlite",
		DSN:     filepath.Join(dir, "capture_test.db"),
		Version: version.Version,
	}
	if dsn := os.Getenv("CAPTURE_TEST_DSN"); dsn != "" {
		p.Driver = "postgres"
		p.DSN = dsn
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("failed to validate profile: %v", err)
	}
	return p
}
