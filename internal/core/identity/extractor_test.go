package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantUSN  string
		wantName string
	}{
		{
			name:     "paired lines",
			text:     "University Seat Number\n: 4DM23AI039\nStudent Name\n: JOHN DOE\nBCS401 40 25 65 P",
			wantUSN:  "4DM23AI039",
			wantName: "JOHN DOE",
		},
		{
			name:     "blank lines between label and value",
			text:     "UNIVERSITY SEAT NUMBER\n\n  :  1AB20CS001\n\nSTUDENT NAME\n\n- MARY ANN\n",
			wantUSN:  "1AB20CS001",
			wantName: "MARY ANN",
		},
		{
			name:     "inline values",
			text:     "University Seat Number : 1AB20CS001\nStudent Name : JANE ROE",
			wantUSN:  "1AB20CS001",
			wantName: "JANE ROE",
		},
		{
			name:     "first match wins",
			text:     "Student Name\n: FIRST\nStudent Name\n: SECOND",
			wantName: "FIRST",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if tt.wantUSN == "" {
				assert.Nil(t, got.USN)
			} else {
				require.NotNil(t, got.USN)
				assert.Equal(t, tt.wantUSN, *got.USN)
			}
			if tt.wantName == "" {
				assert.Nil(t, got.Name)
			} else {
				require.NotNil(t, got.Name)
				assert.Equal(t, tt.wantName, *got.Name)
			}
		})
	}
}

func TestExtractWithoutLabels(t *testing.T) {
	got := Extract("BCS401 40 25 65 P\nBCS402 30 30 60 P")
	assert.Nil(t, got.USN)
	assert.Nil(t, got.Name)

	got = Extract("")
	assert.Nil(t, got.USN)
	assert.Nil(t, got.Name)
}

func TestExtractLabelOnLastLine(t *testing.T) {
	got := Extract("Student Name")
	assert.Nil(t, got.Name)
}
