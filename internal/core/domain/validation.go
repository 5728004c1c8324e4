package domain

// IssueSeverity grades a validation finding.
type IssueSeverity string

const (
	// SeverityError marks an invariant violation.
	SeverityError IssueSeverity = "error"

	// SeverityWarning marks a missing-but-tolerated field.
	SeverityWarning IssueSeverity = "warning"
)

// ValidationIssue is a single finding against one document.
type ValidationIssue struct {
	// DocumentID is the document the issue belongs to.
	DocumentID string `json:"document_id"`

	// Field names the offending field.
	Field string `json:"field"`

	// Message describes the problem.
	Message string `json:"message"`

	// Severity grades the finding.
	Severity IssueSeverity `json:"severity"`
}

// ValidationReport summarises an offline scan of the index.
// It is tooling output only, never part of the ingestion or query path.
type ValidationReport struct {
	// TotalDocuments is the number of distinct document ids observed.
	TotalDocuments int `json:"total_documents"`

	// ValidDocuments is the number of documents with no error-severity issues.
	ValidDocuments int `json:"valid_documents"`

	// TotalChunks is the number of chunks scanned.
	TotalChunks int `json:"total_chunks"`

	// Issues lists every finding.
	Issues []ValidationIssue `json:"issues"`
}
