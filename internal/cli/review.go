package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/capturelab/capture/internal/resolver"
	"github.com/capturelab/capture/store"
)

var (
	reviewWinner int32
	reviewLoser  int32
)

// reviewCmd represents the review command group
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Adjudicate ambiguous entity matches",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities flagged for review",
	RunE:  runReviewList,
}

var reviewMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a reviewed duplicate into its golden record",
	Long: `Merge collapses the loser entity into the winner: source refs and edges
move to the winner, surviving field values are kept, and the loser is
tombstoned with a redirect.

Example:
  capture review merge --winner 12 --loser 47`,
	RunE: runReviewMerge,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewMergeCmd)

	reviewMergeCmd.Flags().Int32Var(&reviewWinner, "winner", 0, "surviving entity id (required)")
	reviewMergeCmd.Flags().Int32Var(&reviewLoser, "loser", 0, "entity id to merge away (required)")
	_ = reviewMergeCmd.MarkFlagRequired("winner")
	_ = reviewMergeCmd.MarkFlagRequired("loser")
}

// reviewItem is the JSON projection printed by review list.
type reviewItem struct {
	ID         int32   `json:"id"`
	UID        string  `json:"uid"`
	Kind       string  `json:"kind"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

func runReviewList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	needsReview := true
	normal := store.Normal
	entities, err := st.ListEntities(ctx, &store.FindEntity{NeedsReview: &needsReview, RowStatus: &normal})
	if err != nil {
		return err
	}

	items := make([]reviewItem, 0, len(entities))
	for _, entity := range entities {
		item := reviewItem{
			ID:         entity.ID,
			UID:        entity.UID,
			Kind:       string(entity.Kind),
			Confidence: entity.Confidence,
		}
		switch {
		case entity.Person != nil:
			item.Name = entity.Person.DisplayName
		case entity.Organization != nil:
			item.Name = entity.Organization.Name
		}
		items = append(items, item)
	}
	return printJSON(cmd, items)
}

func runReviewMerge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, p, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	r := resolver.New(st, resolver.Options{
		MergeThreshold: p.MergeThreshold,
		ReviewFloor:    p.ReviewFloor,
		GraphBoostCap:  p.GraphBoostCap,
	})
	if err := r.Merge(ctx, reviewWinner, reviewLoser); err != nil {
		return err
	}
	cmd.Printf("merged entity %d into %d\n", reviewLoser, reviewWinner)
	return nil
}
