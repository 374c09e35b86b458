package variant

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

func resultSheet(codes int) string {
	var b strings.Builder
	b.WriteString("VISVESVARAYA TECHNOLOGICAL UNIVERSITY\n")
	b.WriteString("University Seat Number : 4DM23AI039\n")
	b.WriteString("Student Name : JOHN DOE\n")
	b.WriteString("Semester : 4\n")
	for i := 0; i < codes; i++ {
		fmt.Fprintf(&b, "BCS4%02d 40 25 65 P 2024-09-01\n", i)
	}
	return b.String()
}

func TestScoreEmptyAndShort(t *testing.T) {
	assert.Equal(t, 0, Score(""))
	assert.Equal(t, 0, Score("   \n  "))
	assert.Equal(t, 0, Score("University Seat Number : 4DM23AI039"))
}

func TestScoreRanksStructureAboveNoise(t *testing.T) {
	sheet := resultSheet(12)
	punct := strings.Repeat("~|^<>.;", len(sheet)/7+1)[:len(sheet)]
	require.Len(t, punct, len(sheet))

	good := Score(sheet)
	assert.Greater(t, good, Score(""))
	assert.Greater(t, good, Score(punct))
	assert.Equal(t, 0, Score(punct))
}

func TestScoreIsNeverNegative(t *testing.T) {
	noise := strings.Repeat("<<<>>> ~~~ ||| ^^^ \n", 10)
	assert.Equal(t, 0, Score(noise))
}

func TestScoreCapsCodeDensity(t *testing.T) {
	// code and number bonuses stop growing once capped
	assert.Equal(t, Score(resultSheet(40)), Score(resultSheet(60)))
}

func TestSelect(t *testing.T) {
	_, ok := Select(nil)
	assert.False(t, ok)

	candidates := []entity.VariantCandidate{
		{Label: "original", Text: "garbled ~~~|||"},
		{Label: "gray", Text: resultSheet(12)},
		{Label: "threshold", Text: resultSheet(12)},
	}
	best, ok := Select(candidates)
	require.True(t, ok)
	assert.Equal(t, "gray", best.Label, "ties keep the first seen rendering")
	assert.Equal(t, Score(resultSheet(12)), best.Score)
	assert.Equal(t, 0, candidates[0].Score)
}

func TestSelectAllZeroKeepsFirst(t *testing.T) {
	best, ok := Select([]entity.VariantCandidate{{Label: "a"}, {Label: "b"}})
	require.True(t, ok)
	assert.Equal(t, "a", best.Label)
}
