package entity

// Flag is the review status attached to a subject row.
type Flag string

const (
	FlagOK      Flag = "OK"
	FlagPartial Flag = "PARTIAL"
	FlagReview  Flag = "REVIEW"
)

// SubjectRow is one subject's marks as read from a page. Absent values are nil.
type SubjectRow struct {
	Code       string  `json:"subject_code"`
	Internal   *int    `json:"internal"`
	External   *int    `json:"external"`
	Total      *int    `json:"total"`
	Result     *string `json:"result"`
	Confidence float64 `json:"confidence"`
	Flag       Flag    `json:"flag"`
}

// HasMarks reports whether all three marks were recovered.
func (r SubjectRow) HasMarks() bool {
	return r.Internal != nil && r.External != nil && r.Total != nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
