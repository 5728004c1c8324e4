package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check index metadata consistency",
	Long: `Scans every stored chunk and reports metadata problems: malformed
document ids, missing page counts, and chunk-count mismatches.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(false); err != nil {
		return err
	}
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	ctx := context.Background()

	report, err := registryService.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if validateJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Documents: %d (%d valid)\n", report.TotalDocuments, report.ValidDocuments)
	cmd.Printf("Chunks:    %d\n", report.TotalChunks)

	if len(report.Issues) == 0 {
		cmd.Println("\nNo issues found.")
		return nil
	}

	cmd.Printf("\nIssues (%d):\n", len(report.Issues))
	for _, issue := range report.Issues {
		cmd.Printf("  [%s] %s: %s (%s)\n", issue.Severity, issue.DocumentID, issue.Message, issue.Field)
	}

	if hasErrors(report) {
		return errors.New("validation found errors")
	}
	return nil
}

func hasErrors(report *domain.ValidationReport) bool {
	for _, issue := range report.Issues {
		if issue.Severity == domain.SeverityError {
			return true
		}
	}
	return false
}
