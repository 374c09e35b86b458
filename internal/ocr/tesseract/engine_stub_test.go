//go:build !gosseract

package tesseract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWithoutTag(t *testing.T) {
	e, err := New(Options{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, e)
}
