package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: " error ", want: LevelError},
		{in: "loud", want: LevelInfo},
		{in: "", want: LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelInfo)
	Debug("hidden detail", "k", 1)
	Info("layout built", "grids", 53)
	Error("fetch failed", errors.New("boom"), "id", "work")

	out := buf.String()
	assert.NotContains(t, out, "hidden detail")
	assert.Contains(t, out, "layout built")
	assert.Contains(t, out, "grids=53")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "id=work")

	buf.Reset()
	SetLevel(LevelError)
	Info("quiet")
	assert.Empty(t, buf.String())
}
