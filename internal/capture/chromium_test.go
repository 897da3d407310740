package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidation(t *testing.T) {
	err := CaptureYearPNG(context.Background(), Options{OutputPath: "x.png"})
	assert.EqualError(t, err, "capture: URL is required")

	err = CaptureYearPNG(context.Background(), Options{URL: "http://127.0.0.1/year"})
	assert.EqualError(t, err, "capture: OutputPath is required")

	o := Options{URL: "u", OutputPath: "p"}
	require.NoError(t, o.normalize())
	assert.Equal(t, DefaultWidth, o.Width)
	assert.Equal(t, DefaultHeight, o.Height)
	assert.Positive(t, o.Timeout)
}

func TestWriteAtomicReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "preview.png")
	require.NoError(t, writeAtomic(path, []byte("one")))
	require.NoError(t, writeAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
