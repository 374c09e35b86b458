package subjects

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

// HeuristicConfig holds the tunables of the noisy-text strategy.
type HeuristicConfig struct {
	// MergeSplitMax bounds both halves of a split 4-digit token.
	MergeSplitMax int `yaml:"merge_split_max"`
	// Tolerance is the allowed |internal+external-total|.
	Tolerance int `yaml:"tolerance"`
	// PassTotal is the minimum passing total.
	PassTotal int `yaml:"pass_total"`
	// MaxCandidates caps the numbers fed into the permutation search.
	MaxCandidates int `yaml:"max_candidates"`
}

// DefaultHeuristicConfig returns the tuned defaults.
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		MergeSplitMax: 50,
		Tolerance:     2,
		PassTotal:     36,
		MaxCandidates: 8,
	}
}

var (
	reFooter  = regexp.MustCompile(`(?i)(NOMENCLATURE|NOTE\s*:|RESULTS OF|REGISTRAR|PAGE\s+\d+)`)
	reResult  = regexp.MustCompile(`\b[PFAW]\b`)
	reMerged  = regexp.MustCompile(`\b\d{4}\b`)
	reSmallNo = regexp.MustCompile(`\b\d{1,3}\b`)
)

const maxMark = 100

// Marks is what ExtractMarks recovers from one subject block.
type Marks struct {
	Internal *int
	External *int
	Total    *int
	Result   string
	Date     string
}

// Heuristic recovers rows from recognizer output where marks may be merged,
// split across lines or followed by footer noise.
type Heuristic struct {
	cfg HeuristicConfig
}

// NewHeuristic returns a Heuristic. A non-positive MaxCandidates falls back to
// the default.
func NewHeuristic(cfg HeuristicConfig) *Heuristic {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultHeuristicConfig().MaxCandidates
	}
	return &Heuristic{cfg: cfg}
}

func (h *Heuristic) Extract(text string) []entity.SubjectRow {
	var rows []entity.SubjectRow
	for _, block := range SplitBlocks(text) {
		code := reCode.FindString(block)
		if code == "" {
			continue
		}
		m := h.ExtractMarks(block)
		rows = append(rows, entity.SubjectRow{
			Code:     code,
			Internal: m.Internal,
			External: m.External,
			Total:    m.Total,
			Result:   entity.StrPtr(m.Result),
		})
	}
	return rows
}

// ExtractMarks resolves one block into (internal, external, total) plus the
// result letter. When no triplet fits the tolerance all marks stay nil.
func (h *Heuristic) ExtractMarks(block string) Marks {
	var out Marks

	// Activity subjects carry a single mark.
	upper := strings.ToUpper(block)
	if strings.Contains(upper, "BPEK") || strings.Contains(upper, "PHYSICAL EDUCATION") {
		best := -1
		for _, n := range ints(reSmallNo.FindAllString(block, -1)) {
			if n <= maxMark && n > best {
				best = n
			}
		}
		if best >= 0 {
			out.Internal = entity.IntPtr(best)
			out.External = entity.IntPtr(0)
			out.Total = entity.IntPtr(best)
		}
	}

	if loc := reFooter.FindStringIndex(block); loc != nil {
		block = block[:loc[0]]
	}
	if loc := reDate.FindStringIndex(block); loc != nil {
		out.Date = block[loc[0]:loc[1]]
		block = block[:loc[0]]
	}
	if loc := reResult.FindStringIndex(block); loc != nil {
		out.Result = block[loc[0]:loc[1]]
		block = block[:loc[0]]
	}

	var split []int
	for _, tok := range reMerged.FindAllString(block, -1) {
		a, _ := strconv.Atoi(tok[:2])
		b, _ := strconv.Atoi(tok[2:])
		if a <= h.cfg.MergeSplitMax && b <= h.cfg.MergeSplitMax {
			split = append(split, a, b)
		}
	}
	block = reMerged.ReplaceAllString(block, "")

	var candidates []int
	for _, n := range ints(reSmallNo.FindAllString(block, -1)) {
		if (n == 0 || n >= 10) && n <= maxMark {
			candidates = append(candidates, n)
		}
	}
	// recovered halves always make the cut; plain tokens fill what is left
	if len(split) > h.cfg.MaxCandidates {
		split = split[:h.cfg.MaxCandidates]
	}
	if room := h.cfg.MaxCandidates - len(split); len(candidates) > room {
		candidates = candidates[:room]
	}
	candidates = append(candidates, split...)

	if out.Internal == nil {
		if i, e, t, ok := h.bestTriplet(candidates, out.Result); ok {
			out.Internal, out.External, out.Total = entity.IntPtr(i), entity.IntPtr(e), entity.IntPtr(t)
		}
	}
	return out
}

// bestTriplet searches ordered picks of three distinct positions.
func (h *Heuristic) bestTriplet(nums []int, result string) (int, int, int, bool) {
	bestScore := -1
	var bi, be, bt int
	for x := range nums {
		for y := range nums {
			if y == x {
				continue
			}
			for z := range nums {
				if z == x || z == y {
					continue
				}
				i, e, t := nums[x], nums[y], nums[z]
				if t > maxMark || abs(i+e-t) > h.cfg.Tolerance {
					continue
				}
				score := 0
				if t >= h.cfg.PassTotal {
					score += 2
					if result == string(constants.ResultPass) {
						score += 2
					}
				}
				if score > bestScore {
					bestScore = score
					bi, be, bt = i, e, t
				}
			}
		}
	}
	return bi, be, bt, bestScore >= 0
}

func ints(tokens []string) []int {
	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if n, err := strconv.Atoi(tok); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
