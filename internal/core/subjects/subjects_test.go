package subjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

func marks(t *testing.T, row entity.SubjectRow) (int, int, int) {
	t.Helper()
	require.NotNil(t, row.Internal, row.Code)
	require.NotNil(t, row.External, row.Code)
	require.NotNil(t, row.Total, row.Code)
	return *row.Internal, *row.External, *row.Total
}

func TestDeterministicExtract(t *testing.T) {
	text := "University Seat Number\n: 4DM23AI039\nStudent Name\n: JOHN DOE\nBCS401 40 25 65 P"

	rows := Deterministic{}.Extract(text)
	require.Len(t, rows, 1)
	assert.Equal(t, "BCS401", rows[0].Code)
	i, e, tot := marks(t, rows[0])
	assert.Equal(t, []int{40, 25, 65}, []int{i, e, tot})
	require.NotNil(t, rows[0].Result)
	assert.Equal(t, "P", *rows[0].Result)
}

func TestDeterministicWrappedTitles(t *testing.T) {
	text := `Sl No Subject Code Subject Name Internal External Total Result
1 BCS401 ANALYSIS AND DESIGN
OF ALGORITHMS 40 25 65 P 2024-09-01
2 BCS402 MICROCONTROLLERS 30 30 60 P 2024-09-01
3 BCSL404 ANALYSIS LAB 2 45 40 85 P`

	rows := Deterministic{}.Extract(text)
	require.Len(t, rows, 3)
	assert.Equal(t, "BCS401", rows[0].Code)
	assert.Equal(t, "BCS402", rows[1].Code)
	assert.Equal(t, "BCSL404", rows[2].Code)

	i, e, tot := marks(t, rows[2])
	assert.Equal(t, []int{45, 40, 85}, []int{i, e, tot})
}

func TestDeterministicDropsImplausibleMarks(t *testing.T) {
	d := Deterministic{Tolerance: 2}
	tests := []struct {
		name string
		text string
		want []int // nil means all marks absent
	}{
		{name: "sum holds", text: "BCS401 40 25 65 P", want: []int{40, 25, 65}},
		{name: "within tolerance", text: "BCS401 40 25 67 P", want: []int{40, 25, 67}},
		{name: "sum broken", text: "BCS401 40 25 99 P"},
		{name: "out of range", text: "BCS401 400 250 650 P"},
		{name: "double credit subject", text: "BAI786 0 200 200 P", want: []int{0, 200, 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := d.Extract(tt.text)
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].Result)
			assert.Equal(t, "P", *rows[0].Result)
			if tt.want == nil {
				assert.Nil(t, rows[0].Internal)
				assert.Nil(t, rows[0].External)
				assert.Nil(t, rows[0].Total)
				return
			}
			i, e, tot := marks(t, rows[0])
			assert.Equal(t, tt.want, []int{i, e, tot})
		})
	}
}

func TestStrategiesShareTolerance(t *testing.T) {
	cfg := DefaultHeuristicConfig()
	cfg.Tolerance = 0
	rows := NewStrategies(cfg).For(entity.QualityClean).Extract("BCS401 40 25 66 P")
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Total)
}

func TestSplitBlocks(t *testing.T) {
	text := "HEADER LINE\n\nBCS401 ALGORITHMS\n40 25\n65 P\nBCS402 MICRO 30 30 60 P\n"
	blocks := SplitBlocks(text)
	assert.Equal(t, []string{
		"BCS401 ALGORITHMS 40 25 65 P",
		"BCS402 MICRO 30 30 60 P",
	}, blocks)
}

func TestExtractMarks(t *testing.T) {
	h := NewHeuristic(DefaultHeuristicConfig())

	tests := []struct {
		name       string
		block      string
		want       []int // nil means all marks absent
		wantResult string
		wantDate   string
	}{
		{name: "clean row", block: "BCS401 40 25 65 P", want: []int{40, 25, 65}, wantResult: "P"},
		{name: "merged internal and external", block: "BCS401 4025 65 P", want: []int{40, 25, 65}, wantResult: "P"},
		{name: "within tolerance", block: "BCS406 40 25 66 P", want: []int{40, 25, 66}, wantResult: "P"},
		{name: "repeated values", block: "BCS405 20 20 40 P", want: []int{20, 20, 40}, wantResult: "P"},
		{name: "too few numbers", block: "BCS402 12 77 P", wantResult: "P"},
		{name: "nothing fits tolerance", block: "BCS403 10 20 90 F", wantResult: "F"},
		{name: "single digit noise ignored", block: "BCS404 3 40 25 65 P", want: []int{40, 25, 65}, wantResult: "P"},
		{
			name:       "footer and date",
			block:      "BCS401 40 25 65 P 2024-09-01 Nomenclature: P pass 11 12 23",
			want:       []int{40, 25, 65},
			wantResult: "P",
			wantDate:   "2024-09-01",
		},
		{name: "physical education", block: "BPEK559 PHYSICAL EDUCATION 85 U P", want: []int{85, 0, 85}, wantResult: "P"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.ExtractMarks(tt.block)
			assert.Equal(t, tt.wantResult, got.Result)
			assert.Equal(t, tt.wantDate, got.Date)
			if tt.want == nil {
				assert.Nil(t, got.Internal)
				assert.Nil(t, got.External)
				assert.Nil(t, got.Total)
				return
			}
			require.NotNil(t, got.Internal)
			require.NotNil(t, got.External)
			require.NotNil(t, got.Total)
			assert.Equal(t, tt.want, []int{*got.Internal, *got.External, *got.Total})
		})
	}
}

func TestExtractMarksCandidateCap(t *testing.T) {
	block := "BCS407 70 71 72 40 25 65 P"

	got := NewHeuristic(DefaultHeuristicConfig()).ExtractMarks(block)
	require.NotNil(t, got.Total)
	assert.Equal(t, 65, *got.Total)

	cfg := DefaultHeuristicConfig()
	cfg.MaxCandidates = 3
	got = NewHeuristic(cfg).ExtractMarks(block)
	assert.Nil(t, got.Internal)
	assert.Nil(t, got.External)
	assert.Nil(t, got.Total)
}

func TestExtractMarksCapKeepsMergedHalves(t *testing.T) {
	// nine plain tokens crowd the default cap of eight
	block := "BCS408 45 80 81 82 83 84 85 86 87 3015 P"

	got := NewHeuristic(DefaultHeuristicConfig()).ExtractMarks(block)
	require.NotNil(t, got.Internal)
	require.NotNil(t, got.External)
	require.NotNil(t, got.Total)
	assert.Equal(t, []int{30, 15, 45}, []int{*got.Internal, *got.External, *got.Total})
}

func TestHeuristicExtractHonoursTolerance(t *testing.T) {
	text := `UNIVERSITY SEAT NUMBER : 4DM23AI039
BCS401 ANALYSIS & DESIGN OF ALGORITHMS
4025 65 P 2024-09-01
BCS402 MICROCONTROLLERS 12 77 P
BCS403 DBMS 10 20 90 F
BCS404 ~~ 31 27 59 P
REGISTRAR (EVALUATION) PAGE 1`

	rows := NewHeuristic(DefaultHeuristicConfig()).Extract(text)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"BCS401", "BCS402", "BCS403", "BCS404"},
		[]string{rows[0].Code, rows[1].Code, rows[2].Code, rows[3].Code})

	for _, row := range rows {
		if row.HasMarks() {
			d := *row.Internal + *row.External - *row.Total
			assert.LessOrEqual(t, abs(d), 2, row.Code)
			continue
		}
		assert.Nil(t, row.Internal, row.Code)
		assert.Nil(t, row.External, row.Code)
		assert.Nil(t, row.Total, row.Code)
	}
	assert.True(t, rows[0].HasMarks())
	assert.False(t, rows[1].HasMarks())
	assert.False(t, rows[2].HasMarks())
	assert.True(t, rows[3].HasMarks())
}

func TestStrategiesFor(t *testing.T) {
	s := NewStrategies(DefaultHeuristicConfig())
	assert.IsType(t, Deterministic{}, s.For(entity.QualityClean))
	assert.IsType(t, &Heuristic{}, s.For(entity.QualityNoisy))
}
