package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Enhancement variant labels, from least to most aggressive.
const (
	VariantOriginal  = "original"
	VariantGray      = "gray"
	VariantDenoise   = "denoise"
	VariantContrast  = "contrast"
	VariantSharpen   = "sharpen"
	VariantThreshold = "threshold"
)

// AllVariants is the default enhancement order.
var AllVariants = []string{
	VariantOriginal, VariantGray, VariantDenoise, VariantContrast, VariantSharpen, VariantThreshold,
}

const (
	minHeight    = 900
	targetHeight = 1300
)

// Variant is one rendering of the page image.
type Variant struct {
	Label string
	Image image.Image
}

// Enhance returns the requested renderings of img in AllVariants order.
// An empty want selects every variant.
func Enhance(img image.Image, want []string) []Variant {
	img = upscale(img)

	keep := func(label string) bool {
		if len(want) == 0 {
			return true
		}
		for _, w := range want {
			if w == label {
				return true
			}
		}
		return false
	}

	gray := imaging.Grayscale(img)
	denoised := imaging.Blur(gray, 0.8)
	contrast := imaging.AdjustContrast(denoised, 30)
	sharpened := imaging.Sharpen(contrast, 1.0)

	all := []Variant{
		{VariantOriginal, img},
		{VariantGray, gray},
		{VariantDenoise, denoised},
		{VariantContrast, contrast},
		{VariantSharpen, sharpened},
	}
	var out []Variant
	for _, v := range all {
		if keep(v.Label) {
			out = append(out, v)
		}
	}
	if keep(VariantThreshold) {
		out = append(out, Variant{VariantThreshold, adaptiveThreshold(denoised, 15)})
	}
	return out
}

// upscale enlarges scans shorter than minHeight to targetHeight, keeping the
// aspect ratio.
func upscale(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dy() >= minHeight || b.Dy() == 0 {
		return img
	}
	w := b.Dx() * targetHeight / b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// adaptiveThreshold binarizes against a blurred local mean, offset by c.
func adaptiveThreshold(gray *image.NRGBA, c uint8) *image.Gray {
	mean := imaging.Blur(gray, 5)
	b := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := gray.NRGBAAt(b.Min.X+x, b.Min.Y+y).R
			m := mean.NRGBAAt(x, y).R
			v := uint8(255)
			if int(px) < int(m)-int(c) {
				v = 0
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}
