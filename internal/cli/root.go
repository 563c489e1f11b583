// Package cli wires the capture commands. Commands parse flags, open the
// store, and print JSON; all business logic lives in the internal packages.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capturelab/capture/internal/profile"
	"github.com/capturelab/capture/internal/version"
	"github.com/capturelab/capture/store"
	"github.com/capturelab/capture/store/db"
)

var (
	mode       string
	dataDir    string
	driverName string
	dsn        string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "capture",
	Short:         "Capture - entity resolution and relationship scoring for federal BD",
	Long: `Capture maintains a deduplicated graph of the people and organizations
around federal contract opportunities. It ingests contact records from
sources like SAM.gov, FPDS, and LinkedIn exports, resolves them into golden
records, and scores opportunities by relationship advantage and staff
capability coverage.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("capture v%s\n", version.Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "demo", "run mode (demo, dev, prod)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".", "data directory")
	rootCmd.PersistentFlags().StringVar(&driverName, "driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "database DSN")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	_ = viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver"))
	_ = viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in environment variables that match CAPTURE_*
func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	viper.SetEnvPrefix("CAPTURE")
	viper.AutomaticEnv()

	viper.SetDefault("merge_threshold", 0.8)
	viper.SetDefault("review_floor", 0.6)
	viper.SetDefault("graph_boost_cap", 0.4)
	viper.SetDefault("active_window_days", 90)
	viper.SetDefault("ingest_workers", 4)
	viper.SetDefault("ingest_rate_per_sec", 0)
}

func buildProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:             viper.GetString("mode"),
		Data:             viper.GetString("data"),
		Driver:           viper.GetString("driver"),
		DSN:              viper.GetString("dsn"),
		Version:          version.Version,
		MergeThreshold:   viper.GetFloat64("merge_threshold"),
		ReviewFloor:      viper.GetFloat64("review_floor"),
		GraphBoostCap:    viper.GetFloat64("graph_boost_cap"),
		ActiveWindowDays: viper.GetInt("active_window_days"),
		IngestWorkers:    viper.GetInt("ingest_workers"),
		IngestRatePerSec: viper.GetInt("ingest_rate_per_sec"),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func openStore(ctx context.Context) (*store.Store, *profile.Profile, error) {
	p, err := buildProfile()
	if err != nil {
		return nil, nil, err
	}
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return st, p, nil
}
