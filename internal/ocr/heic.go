package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// heicConverters maps a converter name to its argument list.
var heicConverters = map[string]func(in, out string) []string{
	"heif-convert": func(in, out string) []string { return []string{in, out} },
	"magick":       func(in, out string) []string { return []string{in, out} },
	"sips":         func(in, out string) []string { return []string{"-s", "format", "png", in, "--out", out} },
}

// convertHEICtoPNG converts a HEIC/HEIF file to a temporary PNG with the
// configured converter. Call cleanup() to remove temp files.
func convertHEICtoPNG(ctx context.Context, r Runner, converter, in string) (string, []string, func(), error) {
	argsFor, ok := heicConverters[converter]
	if !ok {
		return "", nil, nil, fmt.Errorf("HEIC not supported: set ocr.heic_converter to one of: heif-convert | magick | sips")
	}

	tmpDir, err := os.MkdirTemp("", "rt-heic-*")
	if err != nil {
		return "", nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	if _, errb, err := r.Run(ctx, converter, argsFor(in, out)...); err != nil {
		return "", []string{string(errb)}, cleanup, fmt.Errorf("%s failed: %w", converter, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", nil, cleanup, fmt.Errorf("HEIC conversion produced no output: %v", err)
	}
	return out, nil, cleanup, nil
}
