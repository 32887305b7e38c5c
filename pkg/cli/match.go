package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feralworks/trapper-engine/pkg/repositories"
	"github.com/feralworks/trapper-engine/pkg/services"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Propose person matches for review",
}

var matchPeopleCmd = &cobra.Command{
	Use:   "people",
	Short: "Score unlinked source records against canonical people",
	Long: `Scores every unlinked clinic client and intake submission against the
canonical people pool and writes the top candidates to the review queue.
Candidates are proposals only: nothing is linked or merged until a human
accepts one. Re-running never lowers a stored confidence.`,
	Args: cobra.NoArgs,
	RunE: runMatchPeople,
}

var flagSourceLimit int

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.AddCommand(matchPeopleCmd)
	matchPeopleCmd.Flags().IntVar(&flagSourceLimit, "limit", 0,
		"cap on unlinked source records scanned (default from config)")
}

func runMatchPeople(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, rootCmd.Version, flagDryRun)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	limit := flagSourceLimit
	if limit <= 0 {
		limit = rt.cfg.Matching.SourceLimit
	}

	svc := services.NewMatchCandidateService(
		repositories.NewPersonRepository(rt.q),
		repositories.NewAppointmentRepository(rt.q),
		repositories.NewSubmissionRepository(rt.q),
		repositories.NewMatchCandidateRepository(rt.q),
		rt.logger)

	summary, err := svc.GenerateCandidates(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "people:     %d in pool\n", summary.PeopleScanned)
	fmt.Fprintf(out, "sources:    %d scanned\n", summary.SourcesScanned)
	fmt.Fprintf(out, "candidates: %d created, %d refreshed, %d skipped\n",
		summary.CandidatesCreated, summary.CandidatesRefreshed, summary.CandidatesSkipped)
	fmt.Fprintf(out, "tiers:      0:%d 1:%d 2:%d 3:%d\n",
		summary.ByTier[0], summary.ByTier[1], summary.ByTier[2], summary.ByTier[3])
	printDryRun(cmd)
	return nil
}
