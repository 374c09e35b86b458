package entity

// Identity is the student identity block. Absent fields are nil.
type Identity struct {
	USN  *string `json:"usn"`
	Name *string `json:"name"`
}

// HasUSN reports whether the identity carries a usable id.
func (i Identity) HasUSN() bool {
	return i.USN != nil && *i.USN != ""
}

// PageResult is one page's extraction before it is folded into a document.
type PageResult struct {
	Source   string
	Index    int
	Identity Identity
	Subjects []SubjectRow
}

// StudentDocument is a finalized per-student record. Subjects are unique by code.
type StudentDocument struct {
	Identity Identity     `json:"identity"`
	Subjects []SubjectRow `json:"subjects"`
	Sources  []string     `json:"sources,omitempty"`
}

// Result is the output contract handed to exporters and persistence.
type Result struct {
	Header   Header          `json:"header"`
	Subjects []SubjectRecord `json:"subjects"`
}

// Header carries the identity fields of a Result.
type Header struct {
	USN  *string `json:"usn"`
	Name *string `json:"name"`
}

// SubjectRecord is one subject in a Result.
type SubjectRecord struct {
	SubjectCode string  `json:"subject_code"`
	Internal    *int    `json:"internal"`
	External    *int    `json:"external"`
	Total       *int    `json:"total"`
	Result      *string `json:"result"`
}

// Result converts the document to the output contract.
func (d StudentDocument) Result() Result {
	out := Result{
		Header:   Header{USN: d.Identity.USN, Name: d.Identity.Name},
		Subjects: make([]SubjectRecord, 0, len(d.Subjects)),
	}
	for _, s := range d.Subjects {
		out.Subjects = append(out.Subjects, SubjectRecord{
			SubjectCode: s.Code,
			Internal:    s.Internal,
			External:    s.External,
			Total:       s.Total,
			Result:      s.Result,
		})
	}
	return out
}

// USNOrEmpty returns the document's USN or "".
func (d StudentDocument) USNOrEmpty() string {
	if d.Identity.USN == nil {
		return ""
	}
	return *d.Identity.USN
}
