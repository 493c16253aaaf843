package stitcher

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return &buf
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestProcess_Panorama(t *testing.T) {
	_, left, right := overlappingPair()

	var pano, matches bytes.Buffer
	err := NewStitcher().Process(encodePNG(t, left), encodePNG(t, right), &pano, &matches)
	require.NoError(t, err)

	img, err := imaging.Decode(&pano)
	require.NoError(t, err)
	assert.InDelta(t, 700, img.Bounds().Dx(), 3)
	assert.Equal(t, 300, img.Bounds().Dy())

	vis, err := imaging.Decode(&matches)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 300), vis.Bounds())
}

func TestProcess_WritesTheMatchesOnFailure(t *testing.T) {
	solid := imaging.New(120, 80, color.NRGBA{R: 90, G: 90, B: 90, A: 255})

	var pano, matches bytes.Buffer
	err := NewStitcher().Process(encodePNG(t, solid), encodePNG(t, solid), &pano, &matches)
	assert.ErrorIs(t, err, ErrInsufficientMatches)
	assert.Zero(t, pano.Len())
	assert.NotZero(t, matches.Len())
}

func TestProcess_WithoutMatchesWriter(t *testing.T) {
	_, left, right := overlappingPair()

	var pano bytes.Buffer
	err := NewStitcher().Process(encodePNG(t, left), encodePNG(t, right), &pano, nil)
	require.NoError(t, err)
	assert.NotZero(t, pano.Len())
}

func TestProcess_UndecodableSource(t *testing.T) {
	img := imaging.New(10, 10, color.White)

	var pano bytes.Buffer
	err := NewStitcher().Process(strings.NewReader("nope"), encodePNG(t, img), &pano, nil)
	assert.ErrorContains(t, err, "could not load image 1")

	err = NewStitcher().Process(encodePNG(t, img), strings.NewReader("nope"), &pano, nil)
	assert.ErrorContains(t, err, "could not load image 2")
}

func TestProcess_EncodesByFileExtension(t *testing.T) {
	_, left, right := overlappingPair()
	dir := t.TempDir()

	f, err := os.Create(filepath.Join(dir, "pano.png"))
	require.NoError(t, err)
	err = NewStitcher().Process(encodePNG(t, left), encodePNG(t, right), f, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
