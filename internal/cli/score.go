package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/capturelab/capture/internal/scorer"
)

var (
	scoreOpportunity string
	scoreCompanyID   int32
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the relationship bonus for an opportunity",
	Long: `Score walks the contact graph around the opportunity's agency and prints
the relationship bonus with its rationale as JSON.

Example:
  capture score --opportunity Ksuv3... --company 42`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreOpportunity, "opportunity", "", "opportunity uid (required)")
	scoreCmd.Flags().Int32Var(&scoreCompanyID, "company", 0, "pursuing company entity id")
	_ = scoreCmd.MarkFlagRequired("opportunity")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, p, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	s := scorer.New(st, scorer.Options{ActiveWindowDays: p.ActiveWindowDays})
	score, err := s.ScoreOpportunity(ctx, scoreOpportunity, scoreCompanyID)
	if err != nil {
		return err
	}
	return printJSON(cmd, score)
}
