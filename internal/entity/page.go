package entity

// Quality is the provenance hint used to pick a subject extraction strategy.
type Quality int

const (
	// QualityClean is machine-extracted, column-aligned text (PDF text layer).
	QualityClean Quality = iota
	// QualityNoisy is recognizer output from a scanned image.
	QualityNoisy
)

func (q Quality) String() string {
	switch q {
	case QualityClean:
		return "clean"
	case QualityNoisy:
		return "noisy"
	default:
		return "unknown"
	}
}

// VariantCandidate is one rendering of a physical page.
type VariantCandidate struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Page is the unit handed from text extraction to the pipeline.
// Err is set when the page could not be extracted; such pages are skipped.
type Page struct {
	Source   string
	Index    int
	Quality  Quality
	Variants []VariantCandidate
	Err      error
}

// Stream is an ordered group of files holding one or more students' pages.
type Stream struct {
	ID    string   `json:"id"`
	Paths []string `json:"paths"`
}
