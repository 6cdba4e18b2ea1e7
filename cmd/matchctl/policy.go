package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shelfsight/matchengine/internal/adapters/outbound/config"
	"github.com/shelfsight/matchengine/internal/domain"
)

func newPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect scoring policy files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newPolicyCheckCommand())

	return cmd
}

func newPolicyCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <policy.toml>",
		Short: "Validate a scoring policy file and show the effective values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := config.LoadScoringPolicy(args[0])
			if err != nil {
				return err
			}
			renderPolicy(cmd.OutOrStdout(), policy)
			return nil
		},
	}
}

func renderPolicy(out io.Writer, policy domain.ScoringPolicy) {
	rows := [][]string{
		{"fusion.image", formatWeight(policy.Fusion.Image)},
		{"fusion.text", formatWeight(policy.Fusion.Text)},
		{"rerank.base", formatWeight(policy.Rerank.Base)},
		{"rerank.vector_hybrid", formatWeight(policy.Rerank.VectorHybrid)},
		{"rerank.hybrid_image", formatWeight(policy.Rerank.HybridImage)},
		{"rerank.hybrid_text", formatWeight(policy.Rerank.HybridText)},
		{"rerank.high_vector_bonus", formatWeight(policy.Rerank.HighVectorBonus)},
		{"rerank.high_vector_floor", formatWeight(policy.Rerank.HighVectorFloor)},
		{"bonuses.clean_title_max", formatWeight(policy.Bonuses.CleanTitleMax)},
		{"bonuses.price_present", formatWeight(policy.Bonuses.PricePresent)},
		{"bonuses.reputable_host", formatWeight(policy.Bonuses.ReputableHost)},
		{"bonuses.token_overlap_max", formatWeight(policy.Bonuses.TokenOverlapMax)},
		{"confidence.no_match_floor", formatWeight(policy.Confidence.NoMatchFloor)},
		{"confidence.medium", formatWeight(policy.Confidence.Medium)},
		{"confidence.high", formatWeight(policy.Confidence.High)},
		{"fuzzy_title.auto_match", formatWeight(policy.FuzzyTitle.AutoMatch)},
		{"fuzzy_title.review", formatWeight(policy.FuzzyTitle.Review)},
	}

	fmt.Fprintln(out, "scoring policy is valid")
	fmt.Fprintln(out, renderTable(
		[]string{"Setting", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}

func formatWeight(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
