package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/capturelab/capture/internal/ingest"
	"github.com/capturelab/capture/internal/normalize"
	"github.com/capturelab/capture/internal/resolver"
	"github.com/capturelab/capture/store"
)

var (
	ingestFile    string
	ingestSchema  string
	ingestKind    string
	ingestWorkers int
	ingestRate    int
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Resolve a batch of raw source records into the entity graph",
	Long: `Ingest reads newline-delimited JSON records, normalizes them under the
named source schema, and resolves each against the store. The run report is
printed as JSON.

Example:
  capture ingest --file contacts.jsonl --schema sam.gov --kind person
  capture ingest --file agencies.jsonl --schema manual --kind organization`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "JSONL file of raw records (required)")
	ingestCmd.Flags().StringVar(&ingestSchema, "schema", "", "source schema name (required)")
	ingestCmd.Flags().StringVar(&ingestKind, "kind", "person", "entity kind (person, organization)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "concurrent workers (default from profile)")
	ingestCmd.Flags().IntVar(&ingestRate, "rate", 0, "records per second, 0 for unthrottled")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("schema")
}

func runIngest(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(ingestKind)
	if err != nil {
		return err
	}
	records, err := readRecords(ingestFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, p, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	workers := ingestWorkers
	if workers <= 0 {
		workers = p.IngestWorkers
	}
	ratePerSec := ingestRate
	if ratePerSec <= 0 {
		ratePerSec = p.IngestRatePerSec
	}

	runner := ingest.New(
		normalize.New(normalize.DefaultRegistry()),
		resolver.New(st, resolver.Options{
			MergeThreshold: p.MergeThreshold,
			ReviewFloor:    p.ReviewFloor,
			GraphBoostCap:  p.GraphBoostCap,
		}),
		ingest.Options{Workers: workers, RatePerSec: ratePerSec},
	)
	report, err := runner.Run(ctx, kind, ingestSchema, records)
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}

func parseKind(s string) (store.EntityKind, error) {
	switch s {
	case "person":
		return store.PersonKind, nil
	case "organization", "org":
		return store.OrganizationKind, nil
	default:
		return "", errors.Errorf("unknown entity kind %q, expected person or organization", s)
	}
}

func readRecords(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	var records []map[string]string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec map[string]string
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, errors.Wrapf(err, "invalid record on line %d", line)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return records, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode output")
	}
	cmd.Println(string(out))
	return nil
}
