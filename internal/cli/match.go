package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/capturelab/capture/internal/capability"
	"github.com/capturelab/capture/store"
)

var (
	matchFile   string
	matchRoster string
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score staff roster coverage of an opportunity's requirements",
	Long: `Match extracts clearance, certification, skill, and experience
requirements from opportunity text and scores how well the staff roster
covers them. With --roster the given JSON roster is upserted into the store
first; otherwise the stored roster is used.

Example:
  capture match --file opportunity.txt
  capture match --file opportunity.txt --roster staff.json`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchFile, "file", "", "file with opportunity requirement text (required)")
	matchCmd.Flags().StringVar(&matchRoster, "roster", "", "JSON file with the staff roster")
	_ = matchCmd.MarkFlagRequired("file")
}

// rosterMember is the on-disk roster row shape.
type rosterMember struct {
	UID             string   `json:"uid"`
	Name            string   `json:"name"`
	Clearance       string   `json:"clearance"`
	Certifications  []string `json:"certifications"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experienceYears"`
	Availability    string   `json:"availability"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(matchFile)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", matchFile)
	}

	ctx := context.Background()
	st, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if matchRoster != "" {
		if err := loadRoster(ctx, st, matchRoster); err != nil {
			return err
		}
	}
	roster, err := st.ListStaffMembers(ctx, &store.FindStaffMember{})
	if err != nil {
		return err
	}

	result := capability.Match(string(text), roster, capability.Options{})
	return printJSON(cmd, result)
}

func loadRoster(ctx context.Context, st *store.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	var members []rosterMember
	if err := json.Unmarshal(data, &members); err != nil {
		return errors.Wrapf(err, "invalid roster in %s", path)
	}
	for _, m := range members {
		uid := m.UID
		if uid == "" {
			uid = shortuuid.New()
		}
		availability := store.Availability(m.Availability)
		if availability == "" {
			availability = store.Available
		}
		_, err := st.UpsertStaffMember(ctx, &store.StaffMember{
			UID:             uid,
			Name:            m.Name,
			Clearance:       m.Clearance,
			Certifications:  m.Certifications,
			Skills:          m.Skills,
			ExperienceYears: m.ExperienceYears,
			Availability:    availability,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to upsert roster member %s", m.Name)
		}
	}
	return nil
}
