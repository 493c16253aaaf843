/*
Package stitcher merges two overlapping photographs into a single panorama.

The images are registered by matching rotation aware binary features and
fitting a homography with RANSAC, then the second image is warped into the
frame of the first one and both are blended linearly across the overlap.

The package provides a command line interface, supporting various flags for tuning the stitching.
To check the supported commands type:

	$ stitcher --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/stitcher"
	)

	func main() {
		s := stitcher.NewStitcher()

		res, err := s.Stitch(left, right)
		if err != nil {
			fmt.Printf("Error stitching the images: %s", err.Error())
			return
		}
		// res.Panorama holds the stitched image, res.Matches the match visualization.
	}
*/
package stitcher
