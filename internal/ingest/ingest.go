package ingest

// FileResult is the per-file discovery outcome.
type FileResult struct {
	Path         string
	HashHex      string
	Deduplicated bool // identical content already seen under another path
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Deduplicated uint32
	Failed       uint32
	Streams      uint32
}

// Options tunes discovery. The zero value skips hidden entries and
// deduplicates by content.
type Options struct {
	IncludeHidden  bool
	KeepDuplicates bool
}
