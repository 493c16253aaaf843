// Package feature detects distinctive points in an image and describes the
// neighbourhood of each one with a compact binary signature, so that the same
// scene point can be recognised in a second, overlapping photograph.
package feature

import "image"

// Keypoint is a detected interest point. The coordinates are expressed in the
// pixel space of the full resolution input image.
type Keypoint struct {
	X, Y     float64
	Size     float64 // diameter of the described neighbourhood
	Angle    float64 // dominant orientation in radians
	Response float64 // corner strength, higher is better
	Octave   int     // pyramid level the keypoint was found on
}

// DescriptorBits is the length of a descriptor in bits.
const DescriptorBits = 256

// DescriptorWords is the number of 64 bit words needed to store a descriptor.
const DescriptorWords = DescriptorBits / 64

// Descriptor is a binary feature vector. Descriptors are compared by Hamming distance.
type Descriptor []uint64

// Extractor finds keypoints and computes their descriptors.
// The two returned slices always have the same length and are paired by index.
// A blank or empty image yields empty slices.
type Extractor interface {
	Extract(img image.Image) ([]Keypoint, []Descriptor)
}
