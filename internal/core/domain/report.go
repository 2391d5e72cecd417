package domain

// IngestReport summarises a directory ingestion run.
type IngestReport struct {
	// ChunksWritten is the number of vector records upserted.
	ChunksWritten int

	// FilesProcessed is the number of files that produced chunks.
	FilesProcessed int

	// FilesSkipped counts unsupported, binary, and failed files.
	FilesSkipped int

	// Errors holds one message per file or batch that failed. The run
	// continues past these; they are reported, not fatal.
	Errors []string
}

// TokenStats aggregates token counts over a sample of records.
type TokenStats struct {
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// HealthReport describes the state of the knowledge base. Source and
// token figures are aggregated client-side from a bounded sample, so
// they are approximations, not exact counts.
type HealthReport struct {
	// VectorCount is the total number of records in the index.
	VectorCount int `json:"vector_count"`

	// Dimension is the index vector dimension.
	Dimension int `json:"dimension"`

	// SampleSize is how many records the sample-based figures cover.
	SampleSize int `json:"sample_size"`

	// Sources maps source name to chunk count within the sample.
	Sources map[string]int `json:"sources"`

	// Tokens summarises token counts within the sample.
	Tokens TokenStats `json:"token_stats"`
}

// PurgeOptions configures a purge operation.
type PurgeOptions struct {
	// Source restricts deletion to records from one source.
	Source string

	// OlderThan restricts deletion to records indexed before this date
	// (ISO 8601, date or timestamp).
	OlderThan string

	// DryRun reports an estimate without mutating the index. This is
	// the default; deletion requires Force.
	DryRun bool

	// Force performs the deletion. An unfiltered forced purge deletes
	// everything and must be confirmed by the caller beforehand.
	Force bool
}

// PurgeReport describes the outcome (or dry-run estimate) of a purge.
type PurgeReport struct {
	// DryRun is true when nothing was deleted.
	DryRun bool `json:"dry_run"`

	// Estimated is the number of records the filter matches. For an
	// unfiltered purge it is the total vector count.
	Estimated int `json:"estimated"`

	// Remaining is the vector count after deletion. Only meaningful
	// when DryRun is false; the hosted store may lag briefly.
	Remaining int `json:"remaining"`
}
