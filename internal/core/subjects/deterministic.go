package subjects

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

var (
	reRow = regexp.MustCompile(`\b(` + constants.SubjectCodePattern + `)\s+(\d+)\s+(\d+)\s+(\d+)\s+([` + constants.ResultLetters + `])\b`)

	// code, then anything (subject title), then the mark columns.
	reRowWithTitle = regexp.MustCompile(`\b(` + constants.SubjectCodePattern + `)\b.*?\s(\d{1,3})\s+(\d{1,3})\s+(\d{1,3})\s+([` + constants.ResultLetters + `])\b`)
)

// maxRowMark is the largest mark a row may carry (double-credit subjects).
const maxRowMark = 200

// Deterministic reads rows from machine-extracted text where every row is
// "<code> <internal> <external> <total> <result>". A row whose marks exceed
// maxRowMark or break |internal+external-total| <= Tolerance keeps its code
// and result but loses all three marks.
type Deterministic struct {
	Tolerance int
}

func (d Deterministic) Extract(text string) []entity.SubjectRow {
	prepared := CollapseRows(reDate.ReplaceAllString(text, ""))

	var rows []entity.SubjectRow
	for _, m := range reRow.FindAllStringSubmatch(prepared, -1) {
		row := entity.SubjectRow{Code: m[1], Result: entity.StrPtr(m[5])}
		in, ex, tot := atoi(m[2]), atoi(m[3]), atoi(m[4])
		if d.plausible(in, ex, tot) {
			row.Internal, row.External, row.Total = in, ex, tot
		}
		rows = append(rows, row)
	}
	return rows
}

func (d Deterministic) plausible(in, ex, tot *int) bool {
	if in == nil || ex == nil || tot == nil {
		return false
	}
	if *in > maxRowMark || *ex > maxRowMark || *tot > maxRowMark {
		return false
	}
	diff := *in + *ex - *tot
	return diff >= -d.Tolerance && diff <= d.Tolerance
}

// CollapseRows joins each subject's wrapped lines into one line and drops the
// subject title sitting between the code and the marks. Text before the first
// code is kept as is.
func CollapseRows(text string) string {
	var (
		out     []string
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, " ")
		out = append(out, reRowWithTitle.ReplaceAllString(joined, "$1 $2 $3 $4 $5"))
		current = nil
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case reCode.MatchString(line):
			flush()
			current = []string{line}
		case current != nil:
			current = append(current, line)
		default:
			out = append(out, line)
		}
	}
	flush()
	return strings.Join(out, "\n")
}

func atoi(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
