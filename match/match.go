// Package match pairs the descriptors of two images with a nearest neighbour
// search filtered by Lowe's ratio test.
package match

import (
	"math"
	"math/bits"
	"runtime"
	"sync"

	"github.com/esimov/stitcher/feature"
)

// DefaultRatio is the nearest/second nearest distance ratio a match must stay below.
const DefaultRatio = 0.75

// Match links a query descriptor to its nearest train descriptor.
type Match struct {
	QueryIdx int
	TrainIdx int
	Distance float64
	Ratio    float64 // Distance divided by the distance to the second nearest neighbour
}

// Matcher finds the accepted correspondences between two descriptor sets.
type Matcher interface {
	Match(query, train []feature.Descriptor) []Match
}

// BruteForce compares every query descriptor against every train descriptor.
type BruteForce struct {
	Ratio   float64
	Workers int
}

// NewBruteForce returns a matcher using the default ratio.
func NewBruteForce() *BruteForce {
	return &BruteForce{Ratio: DefaultRatio}
}

// Match implements the Matcher interface. A match is kept only when the nearest
// distance is strictly less than Ratio times the second nearest distance. The
// result is ordered by query index.
func (bf *BruteForce) Match(query, train []feature.Descriptor) []Match {
	if len(query) == 0 || len(train) < 2 {
		return nil
	}
	ratio := bf.Ratio
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	workers := bf.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(query))

	// Every query row owns one slot, so the workers never contend and the output
	// order does not depend on scheduling.
	slots := make([]Match, len(query))
	accepted := make([]bool, len(query))

	rows := make(chan int, len(query))
	for i := range query {
		rows <- i
	}
	close(rows)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for q := range rows {
				m, ok := knn2(q, query[q], train, ratio)
				slots[q], accepted[q] = m, ok
			}
		}()
	}
	wg.Wait()

	matches := make([]Match, 0, len(query))
	for i, ok := range accepted {
		if ok {
			matches = append(matches, slots[i])
		}
	}
	return matches
}

// knn2 finds the two nearest train descriptors and applies the ratio test.
// On equal distances the lowest train index wins.
func knn2(qi int, q feature.Descriptor, train []feature.Descriptor, ratio float64) (Match, bool) {
	best, second := math.MaxInt, math.MaxInt
	bestIdx := -1
	for ti, t := range train {
		d := Hamming(q, t)
		switch {
		case d < best:
			second = best
			best, bestIdx = d, ti
		case d < second:
			second = d
		}
	}
	if bestIdx < 0 || second == math.MaxInt {
		return Match{}, false
	}
	if float64(best) >= ratio*float64(second) {
		return Match{}, false
	}
	return Match{
		QueryIdx: qi,
		TrainIdx: bestIdx,
		Distance: float64(best),
		Ratio:    float64(best) / float64(second),
	}, true
}

// Hamming returns the number of differing bits between two descriptors.
// Descriptors of different length are compared over the shorter one, the
// missing words counting as fully different.
func Hamming(a, b feature.Descriptor) int {
	n := min(len(a), len(b))
	d := 0
	for i := 0; i < n; i++ {
		d += bits.OnesCount64(a[i] ^ b[i])
	}
	return d + 64*(max(len(a), len(b))-n)
}
