package homography

import "github.com/pkg/errors"

var (
	// ErrInsufficientMatches is returned when there are not enough correspondences
	// to estimate a homography.
	ErrInsufficientMatches = errors.New("insufficient matches")

	// ErrDegenerateHomography is returned when no valid transformation could be
	// fitted to the correspondences.
	ErrDegenerateHomography = errors.New("degenerate homography")
)
