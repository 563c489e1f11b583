package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the runtime configuration shared by the CLI and the store.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// DSN points to where capture stores its data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version
	Version string

	// MergeThreshold is the resolver confidence at or above which two
	// candidate records are merged automatically.
	MergeThreshold float64
	// ReviewFloor is the confidence at or above which an ambiguous pair is
	// flagged for human review instead of being treated as distinct.
	ReviewFloor float64
	// GraphBoostCap bounds the total confidence added by shared-neighbor
	// evidence during graph confirmation.
	GraphBoostCap float64
	// ActiveWindowDays is how far back interactions count as recent when
	// scoring relationships.
	ActiveWindowDays int
	// IngestWorkers bounds batch-ingest concurrency.
	IngestWorkers int
	// IngestRatePerSec throttles record processing during batch runs.
	// Zero disables the throttle.
	IngestRatePerSec int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("capture_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.MergeThreshold == 0 {
		p.MergeThreshold = 0.8
	}
	if p.ReviewFloor == 0 {
		p.ReviewFloor = 0.6
	}
	if p.ReviewFloor > p.MergeThreshold {
		return errors.Errorf("review floor %.2f must not exceed merge threshold %.2f", p.ReviewFloor, p.MergeThreshold)
	}
	if p.GraphBoostCap == 0 {
		p.GraphBoostCap = 0.4
	}
	if p.ActiveWindowDays <= 0 {
		p.ActiveWindowDays = 90
	}
	if p.IngestWorkers <= 0 {
		p.IngestWorkers = 4
	}

	return nil
}
