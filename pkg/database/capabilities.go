package database

import (
	"context"
	"fmt"
)

// Capabilities describes which optional schema features the connected
// database actually has. It is probed once at run start and threaded through
// as configuration; per-row introspection is never performed. Absent
// features downgrade behavior (columns skipped, staleness sweep disabled),
// they are never fatal.
type Capabilities struct {
	// CaseArchival: trapper_cases has archived_at and archive_reason.
	CaseArchival bool
	// CaseMergeLinks: trapper_cases has the merged_into_* forward links.
	CaseMergeLinks bool
	// CaseNotes: the trapper_case_notes journal table exists.
	CaseNotes bool
	// WindowedSnapshots: trapper_appointments has last_seen_run_id,
	// is_current and stale_at.
	WindowedSnapshots bool
	// IngestRuns: the trapper_ingest_runs log table exists.
	IngestRuns bool
}

// DetectCapabilities probes information_schema for the optional features.
func DetectCapabilities(ctx context.Context, q Querier) (Capabilities, error) {
	caps := Capabilities{}

	caseCols, err := tableColumns(ctx, q, "trapper_cases")
	if err != nil {
		return caps, err
	}
	caps.CaseArchival = caseCols["archived_at"] && caseCols["archive_reason"]
	caps.CaseMergeLinks = caseCols["merged_into_case_number"] && caseCols["merged_into_source_record_id"]

	apptCols, err := tableColumns(ctx, q, "trapper_appointments")
	if err != nil {
		return caps, err
	}
	caps.WindowedSnapshots = apptCols["last_seen_run_id"] && apptCols["is_current"] && apptCols["stale_at"]

	caps.CaseNotes, err = tableExists(ctx, q, "trapper_case_notes")
	if err != nil {
		return caps, err
	}
	caps.IngestRuns, err = tableExists(ctx, q, "trapper_ingest_runs")
	if err != nil {
		return caps, err
	}

	return caps, nil
}

func tableColumns(ctx context.Context, q Querier, table string) (map[string]bool, error) {
	rows, err := q.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to probe columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}
	return cols, nil
}

func tableExists(ctx context.Context, q Querier, table string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to probe table %s: %w", table, err)
	}
	return exists, nil
}
