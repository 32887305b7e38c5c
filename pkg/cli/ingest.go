package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/feralworks/trapper-engine/pkg/geocode"
	"github.com/feralworks/trapper-engine/pkg/repositories"
	"github.com/feralworks/trapper-engine/pkg/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import a source export file",
}

var ingestCasesCmd = &cobra.Command{
	Use:   "cases <file.csv>",
	Short: "Import a case tracker export",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestCases,
}

var ingestAppointmentsCmd = &cobra.Command{
	Use:   "appointments <file.csv>",
	Short: "Import a clinic schedule export",
	Long: `Imports one clinic schedule export as a windowed snapshot. Two ISO dates
in the file name ("schedule 2024-01-01 2024-01-31.csv") declare the coverage
window explicitly; otherwise the observed appointment dates bound it. Rows
inside the window that the file no longer contains are marked stale; rows
outside it are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestAppointments,
}

var ingestSubmissionsCmd = &cobra.Command{
	Use:   "submissions <file.csv>",
	Short: "Import an intake-form export",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestSubmissions,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestCasesCmd)
	ingestCmd.AddCommand(ingestAppointmentsCmd)
	ingestCmd.AddCommand(ingestSubmissionsCmd)
}

func runIngestCases(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, rootCmd.Version, flagDryRun)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var geocoder geocode.Geocoder
	if rt.cfg.Geocode.Enabled {
		geocoder = geocode.NewClient(rt.cfg.Geocode.BaseURL, rt.cfg.Geocode.APIKey,
			time.Duration(rt.cfg.Geocode.TimeoutSeconds)*time.Second)
	}

	svc := services.NewCaseIngestService(
		repositories.NewAddressRepository(rt.q),
		repositories.NewPlaceRepository(rt.q),
		repositories.NewPersonRepository(rt.q),
		repositories.NewCaseRepository(rt.q),
		geocoder, rt.caps, rt.logger)

	summary, err := svc.IngestCases(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rows:      %d (blank %d, no case number %d, duplicate %d)\n",
		summary.RowsProcessed, summary.BlankRows, summary.MissingCaseNumber, summary.DuplicateInFile)
	fmt.Fprintf(out, "cases:     %d created, %d updated\n", summary.CasesCreated, summary.CasesUpdated)
	fmt.Fprintf(out, "people:    %d created; places: %d created\n", summary.PeopleCreated, summary.PlacesCreated)
	fmt.Fprintf(out, "merges:    %d resolved, %d dangling\n", summary.MergesResolved, summary.MergesDangling)
	fmt.Fprintf(out, "notes:     %d written; statuses unmapped: %d; geocoded: %d\n",
		summary.NotesWritten, summary.StatusUnmapped, summary.Geocoded)
	printDryRun(cmd)
	return nil
}

func runIngestAppointments(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, rootCmd.Version, flagDryRun)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	svc := services.NewAppointmentIngestService(
		repositories.NewAppointmentRepository(rt.q),
		repositories.NewIngestRunRepository(rt.q),
		rt.caps, rt.logger)

	summary, err := svc.IngestAppointments(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:       %s\n", summary.RunID)
	fmt.Fprintf(out, "rows:      %d (blank %d, missing date %d)\n",
		summary.RowsProcessed, summary.BlankRows, summary.MissingDate)
	fmt.Fprintf(out, "snapshot:  %d inserted, %d updated, %d staled\n",
		summary.Inserted, summary.Updated, summary.Staled)
	if summary.CoverageStart != nil && summary.CoverageEnd != nil {
		source := "observed dates"
		if summary.CoverageFromFilename {
			source = "filename"
		}
		fmt.Fprintf(out, "window:    %s .. %s (%s)\n",
			summary.CoverageStart.Format("2006-01-02"),
			summary.CoverageEnd.Format("2006-01-02"), source)
	}
	printDryRun(cmd)
	return nil
}

func runIngestSubmissions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx, rootCmd.Version, flagDryRun)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	svc := services.NewSubmissionIngestService(
		repositories.NewSubmissionRepository(rt.q),
		repositories.NewIngestRunRepository(rt.q),
		rt.caps, rt.logger)

	summary, err := svc.IngestSubmissions(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:       %s\n", summary.RunID)
	fmt.Fprintf(out, "rows:      %d (blank %d, hashed identities %d)\n",
		summary.RowsProcessed, summary.BlankRows, summary.HashedIdentities)
	fmt.Fprintf(out, "snapshot:  %d inserted, %d updated\n", summary.Inserted, summary.Updated)
	printDryRun(cmd)
	return nil
}

func printDryRun(cmd *cobra.Command) {
	if flagDryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "dry-run: rolled back, nothing persisted")
	}
}
