package stitcher

import (
	"io"

	"github.com/pkg/errors"
)

// Process decodes the two source images, stitches them and encodes the
// panorama into w. When mw is not nil the match visualization is encoded into
// it as well; it is written even if the images could not be registered, which
// helps understanding why the stitching failed.
func (s *Stitcher) Process(r1, r2 io.Reader, w, mw io.Writer) error {
	img1, err := decodeImg(r1)
	if err != nil {
		return errors.Wrap(err, "could not load image 1")
	}
	img2, err := decodeImg(r2)
	if err != nil {
		return errors.Wrap(err, "could not load image 2")
	}

	res, err := s.Stitch(img1, img2)
	if mw != nil && res != nil && res.Matches != nil {
		if merr := encodeImg(mw, res.Matches); merr != nil && err == nil {
			return errors.Wrap(merr, "could not encode the match visualization")
		}
	}
	if err != nil {
		return err
	}

	if err := encodeImg(w, res.Panorama); err != nil {
		return errors.Wrap(err, "could not encode the panorama")
	}
	return nil
}
