package constants

// RunStatus is the canonical status for rows in extraction_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusOK      RunStatus = "OK"      // every page extracted
	RunStatusPartial RunStatus = "PARTIAL" // some pages skipped
	RunStatusFailed  RunStatus = "FAILED"  // terminal failure
)
