package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUtils_MinMaxClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(2, Min(2, 5))
	assert.Equal(2, Min(5, 2))
	assert.Equal(5, Max(2, 5))
	assert.Equal(3.5, Abs(-3.5))
	assert.Equal(0, Clamp(-4, 0, 10))
	assert.Equal(10, Clamp(14, 0, 10))
	assert.Equal(7, Clamp(7, 0, 10))
}

func TestUtils_FormatTime(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal("2m 3.00s", FormatTime(2*time.Minute+3*time.Second))
	assert.Equal("1h 1m 1.00s", FormatTime(time.Hour+time.Minute+time.Second))
	assert.Equal("2d 0h 0m 0.00s", FormatTime(48*time.Hour))
}

func TestUtils_DecorateText(t *testing.T) {
	s := DecorateText("done", SuccessMessage)
	assert.True(t, strings.HasPrefix(s, SuccessColor))
	assert.True(t, strings.HasSuffix(s, DefaultColor))
	assert.Contains(t, StatusLine("⚡ STITCHER", "blending", DefaultMessage), "blending")
}

func TestUtils_PathHelpers(t *testing.T) {
	assert := assert.New(t)

	exts := []string{".jpg", ".png"}
	assert.True(HasExtension("pano.JPG", exts))
	assert.False(HasExtension("pano.tiff", exts))

	assert.Equal("a/b.jpg", CleanPath("a//./b.jpg", "-"))
	assert.Equal("-", CleanPath("-", "-"))
	assert.Equal("https://x.org/a//b.jpg", CleanPath("https://x.org/a//b.jpg", "-"))
}

func TestUtils_Spinner(t *testing.T) {
	var buf bytes.Buffer

	s := NewSpinner("registering", time.Millisecond, false)
	s.SetWriter(&buf)
	s.StopMsg = "finished"
	s.Start()
	s.SetMessage("blending")
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.True(t, strings.HasSuffix(buf.String(), "finished"))
}
