package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/results-tracker/constants"
	"github.com/joseph-ayodele/results-tracker/internal/common"
	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

type stubRunner struct {
	mu    sync.Mutex
	calls []string
	fn    func(name string, args []string) ([]byte, []byte, error)
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
	return s.fn(name, args)
}

type stubRecognizer struct {
	fail map[string]bool
}

func (s stubRecognizer) Recognize(_ context.Context, imagePath string) (string, error) {
	label := strings.TrimSuffix(filepath.Base(imagePath), ".png")
	if s.fail[label] || s.fail["*"] {
		return "", errors.New("engine crashed")
	}
	return "text from\t" + label, nil
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 - (x+y)%64)})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

const layerPage = "University Seat Number : 1AB21CS001\nBCS301 Mathematics 40 45 85 P\n"

func TestExtractPDFTextLayer(t *testing.T) {
	r := &stubRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		require.Equal(t, "pdftotext", name)
		require.Contains(t, args, "-layout")
		return []byte(layerPage + "\f" + layerPage + "\f"), nil, nil
	}}
	e := NewExtractor(Config{}, nil, WithRunner(r), WithRecognizer(stubRecognizer{}))

	res, err := e.Extract(context.Background(), "/in/result.PDF")
	require.NoError(t, err)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Equal(t, "pdf-text", res.Method)
	require.Len(t, res.Pages, 2)
	for i, p := range res.Pages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, "/in/result.PDF", p.Source)
		assert.Equal(t, entity.QualityClean, p.Quality)
		require.Len(t, p.Variants, 1)
		assert.Contains(t, p.Variants[0].Text, "1AB21CS001")
	}
}

func TestExtractPDFMaxPages(t *testing.T) {
	r := &stubRunner{fn: func(string, []string) ([]byte, []byte, error) {
		return []byte(layerPage + "\f" + layerPage + "\f" + layerPage + "\f"), nil, nil
	}}
	e := NewExtractor(Config{MaxPages: 2}, nil, WithRunner(r), WithRecognizer(stubRecognizer{}))

	res, err := e.Extract(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Len(t, res.Pages, 2)
}

func TestExtractPDFRasterizesScans(t *testing.T) {
	r := &stubRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		switch name {
		case "pdftotext":
			return []byte("\f\f"), nil, nil
		case "pdftoppm":
			prefix := args[len(args)-1]
			writePNG(t, prefix+"-1.png", 40, 60)
			writePNG(t, prefix+"-2.png", 40, 60)
			return nil, nil, nil
		}
		return nil, nil, errors.New("unexpected " + name)
	}}
	e := NewExtractor(Config{Variants: []string{VariantGray, VariantThreshold}}, nil,
		WithRunner(r), WithRecognizer(stubRecognizer{}))

	res, err := e.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	require.Len(t, res.Pages, 2)
	for i, p := range res.Pages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, "scan.pdf", p.Source)
		assert.Equal(t, entity.QualityNoisy, p.Quality)
		require.NoError(t, p.Err)
		require.Len(t, p.Variants, 2)
		assert.Equal(t, VariantGray, p.Variants[0].Label)
		assert.Equal(t, "text from gray", p.Variants[0].Text)
		assert.Equal(t, VariantThreshold, p.Variants[1].Label)
	}
}

func TestExtractPDFUnreadable(t *testing.T) {
	r := &stubRunner{fn: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("not found"), errors.New("exit status 127")
	}}
	e := NewExtractor(Config{}, nil, WithRunner(r))

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestExtractImageVariants(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.png")
	writePNG(t, in, 30, 45)

	e := NewExtractor(Config{}, nil,
		WithRunner(&stubRunner{fn: func(string, []string) ([]byte, []byte, error) { return nil, nil, nil }}),
		WithRecognizer(stubRecognizer{fail: map[string]bool{VariantThreshold: true}}))

	res, err := e.Extract(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
	require.Len(t, res.Pages, 1)

	p := res.Pages[0]
	require.NoError(t, p.Err)
	assert.Equal(t, in, p.Source)
	assert.Equal(t, entity.QualityNoisy, p.Quality)

	var labels []string
	for _, v := range p.Variants {
		labels = append(labels, v.Label)
	}
	assert.Equal(t, []string{VariantOriginal, VariantGray, VariantDenoise, VariantContrast, VariantSharpen}, labels)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "threshold")
}

func TestExtractImageAllVariantsFail(t *testing.T) {
	in := filepath.Join(t.TempDir(), "page.jpg.png")
	writePNG(t, in, 20, 20)

	e := NewExtractor(Config{Variants: []string{VariantGray}}, nil,
		WithRecognizer(stubRecognizer{fail: map[string]bool{"*": true}}))

	res, err := e.Extract(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	require.Error(t, res.Pages[0].Err)
	assert.Empty(t, res.Pages[0].Variants)
}

func TestExtractImageUndecodable(t *testing.T) {
	in := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, os.WriteFile(in, []byte("not an image"), 0o644))

	e := NewExtractor(Config{}, nil, WithRecognizer(stubRecognizer{}))
	res, err := e.Extract(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Error(t, res.Pages[0].Err)
}

func TestExtractUnsupported(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	_, err := e.Extract(context.Background(), "notes.docx")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupported)
}

func TestExtractHEICWithoutConverter(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithRecognizer(stubRecognizer{}))
	_, err := e.Extract(context.Background(), "photo.HEIC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heic_converter")
}

func TestExtractHEICConverted(t *testing.T) {
	r := &stubRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		require.Equal(t, "heif-convert", name)
		writePNG(t, args[1], 20, 20)
		return nil, nil, nil
	}}
	e := NewExtractor(Config{HeicConverter: "heif-convert", Variants: []string{VariantOriginal}}, nil,
		WithRunner(r), WithRecognizer(stubRecognizer{}))

	res, err := e.Extract(context.Background(), "photo.heic")
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "photo.heic", res.Pages[0].Source)
	require.Len(t, res.Pages[0].Variants, 1)
}

func TestEnhanceUpscalesSmallScans(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 200))
	vs := Enhance(img, []string{VariantOriginal})
	require.Len(t, vs, 1)
	assert.Equal(t, targetHeight, vs[0].Image.Bounds().Dy())
	assert.Equal(t, 650, vs[0].Image.Bounds().Dx())

	big := image.NewGray(image.Rect(0, 0, 10, 1000))
	vs = Enhance(big, []string{VariantOriginal})
	assert.Equal(t, 1000, vs[0].Image.Bounds().Dy())
}

func TestNeedsOCR(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"empty", "", true},
		{"short", "BCS301 40 45 85 P", true},
		{"symbols", strings.Repeat("|~ ", 40), true},
		{"usable", layerPage, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsOCR(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	in := "USN :\t１AB21CS001  \r\n-----\r\n\r\n\r\n\r\nBCS301   40"
	assert.Equal(t, "USN : 1AB21CS001\n\nBCS301 40", Normalize(in))
}
