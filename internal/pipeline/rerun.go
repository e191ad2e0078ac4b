package pipeline

import (
	"context"
	"fmt"
	"log"

	"go-prison-stats/internal/store"
)

// RerunReport runs a stored report again with its saved spec. Previous
// progress, errors, rows and chart are cleared first.
func RerunReport(ctx context.Context, reportID string, opts RunOptions) (*Report, error) {
	log.Printf("🔄 Rerunning report %s", reportID)

	spec, err := store.GetReportSpec(reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", reportID, err)
	}
	if err := store.ClearReport(reportID); err != nil {
		return nil, fmt.Errorf("failed to reset report %s: %w", reportID, err)
	}

	report, err := Run(ctx, reportID, spec, opts)
	if err != nil {
		return report, fmt.Errorf("rerun failed: %w", err)
	}
	return report, nil
}
