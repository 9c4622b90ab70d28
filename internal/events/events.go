package events

import "time"

// PeriodHarvestedEvent is sent when a period's debates have been persisted.
type PeriodHarvestedEvent struct {
	Period    string    // e.g. "pp20"
	Links     int       // Number of discovered protocol links
	Debates   int       // Number of debates written
	Bucket    string    // Mirror bucket, empty when only local files were written
	Timestamp time.Time // When the harvest completed
}

// IngestionCompleteEvent is sent when ingestion finishes indexing a period.
type IngestionCompleteEvent struct {
	Period      string        // Period that was ingested
	DocsIndexed int           // Number of speeches indexed
	Duration    time.Duration // How long ingestion took
	Errors      []string      // Any errors encountered (non-fatal)
}
