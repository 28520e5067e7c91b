package pipeline

const (
	// SummaryColumn is the only column of the summary batch.
	SummaryColumn = "summary"

	summaryFormat = "Number of loaded annotations: %d"
)
