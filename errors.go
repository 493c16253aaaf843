package stitcher

import (
	"github.com/esimov/stitcher/homography"
	"github.com/esimov/stitcher/imop"
	"github.com/pkg/errors"
)

var (
	// ErrInsufficientMatches is returned when the images do not share enough
	// distinctive features to be registered.
	ErrInsufficientMatches = homography.ErrInsufficientMatches

	// ErrDegenerateHomography is returned when the matches do not define a valid
	// perspective transformation.
	ErrDegenerateHomography = homography.ErrDegenerateHomography

	// ErrEmptyComposite is returned when blending produced a black canvas.
	ErrEmptyComposite = imop.ErrEmptyComposite

	// ErrEmptyImage is returned when one of the inputs has no pixels.
	ErrEmptyImage = errors.New("empty image")
)
