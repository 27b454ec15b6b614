package importer

// PipelineStats counts what one pipeline did.
type PipelineStats struct {
	Total    int `json:"total"`    // records considered after skipping
	Imported int `json:"imported"` // successful remote calls
	DryRun   int `json:"dry_run"`  // records only printed
	Warnings int `json:"warnings"` // recovered per-record failures
	Skipped  int `json:"skipped"`  // records deliberately not processed (member skip)
}

// Result is the outcome of an import run. A nil pipeline entry means the
// pipeline was not requested.
type Result struct {
	Repository string         `json:"repository,omitempty"`
	DryRun     bool           `json:"dry_run"`
	Issues     *PipelineStats `json:"issues,omitempty"`
	Labels     *PipelineStats `json:"labels,omitempty"`
	Members    *PipelineStats `json:"members,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
}
