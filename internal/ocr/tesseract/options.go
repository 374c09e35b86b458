// Package tesseract recognizes page images in-process through libtesseract.
// Build with -tags gosseract; without the tag New returns ErrUnavailable.
package tesseract

import "errors"

// ErrUnavailable is returned when the binary was built without libtesseract.
var ErrUnavailable = errors.New("tesseract: built without the gosseract tag")

type Options struct {
	Language    string
	TessdataDir string
	PSM         int
	DPI         int
}
