package ocr

import (
	"strings"
	"unicode"
)

const (
	minTextLayerChars = 50
	minTextLayerAlnum = 0.5
)

// NeedsOCR reports whether an extracted PDF text layer is too thin or too
// garbled to parse, meaning the pages should be rasterized and recognized.
func NeedsOCR(text string) bool {
	text = strings.TrimSpace(text)
	var total, alnum int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total < minTextLayerChars {
		return true
	}
	return float64(alnum)/float64(total) < minTextLayerAlnum
}
