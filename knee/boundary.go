// Package knee implements the Knee Selector: distance-from-diagonal knee
// detection over a ranked barcode-frequency curve, refined by a 1-D
// Gaussian KDE over log-frequencies.
//
// This package is a direct, numerically-faithful port of a C++
// implementation's sampleTrueBarcodes / getLeftBoundary / gaussianKDE
// (see DESIGN.md), including a documented off-by-one indexing quirk and
// the tie-walking of the boundary search. Where the C++ version relies
// on undefined behavior (reading one past the end of a vector), this
// port substitutes a defined, zero-valued read rather than reproducing
// the UB -- see the comment on boundaryAt.
package knee

import "math"

// boundaryAt returns freq[sortedIdx[i]], or 0 if i is out of range for
// sortedIdx. The C++ version this is ported from reads sortedIdx[K] (one
// past the last restricted index) in its cumulative sum, which is
// well-defined there because the snapshot vector is usually larger than
// K; when the snapshot has exactly K elements this becomes an
// out-of-bounds vector read in C++ (undefined behavior). Go cannot
// reproduce that UB safely, so this substitutes a zero contribution,
// which preserves the off-by-one's behavior in every case where it was
// well-defined to begin with.
func boundaryAt(freq []uint32, sortedIdx []int, i int) uint32 {
	if i < 0 || i >= len(sortedIdx) {
		return 0
	}
	return freq[sortedIdx[i]]
}

// GetLeftBoundary locates the knee in a ranked barcode-frequency curve.
// freq is the frequency snapshot, sortedIdx a permutation of indices
// into freq sorted descending by count, and topxBarcodes =
// min(maxNumBarcodes, len(freq)). It returns the knee position (the
// number of barcodes left of the knee), or 0 if no knee could be found
// (a fatal condition for callers).
func GetLeftBoundary(sortedIdx []int, topxBarcodes int, freq []uint32) int {
	if topxBarcodes <= 0 {
		return 0
	}

	cumCount := 0.0
	freqs := make([]float64, topxBarcodes)
	for i := 0; i < topxBarcodes; i++ {
		// Preserved verbatim: indexes sortedIdx[topxBarcodes-i], which for
		// i=0 reads sortedIdx[topxBarcodes], one past the restricted
		// prefix. See the package doc comment above.
		cumCount += float64(boundaryAt(freq, sortedIdx, topxBarcodes-i))
		freqs[i] = math.Log(cumCount)
	}

	leftExtreme := freqs[0]
	for j := 0; j < topxBarcodes; j++ {
		x := j
		y := freqs[j]
		if y == leftExtreme {
			continue
		}

		nextBcIdx := j + 1
		isUp := false
		slope := y / float64(x)
		for i := nextBcIdx; i < topxBarcodes; i++ {
			curveY := freqs[i]
			lineY := float64(i) * slope
			if lineY > curveY {
				isUp = true
				break
			}
		}

		if !isUp {
			cutoff := topxBarcodes - j
			cutoffFrequency := boundaryAt(freq, sortedIdx, cutoff)
			nearestLeftFrequency := cutoffFrequency
			for nearestLeftFrequency == cutoffFrequency {
				cutoff--
				if cutoff < 0 {
					return 0
				}
				nearestLeftFrequency = boundaryAt(freq, sortedIdx, cutoff)
			}
			return cutoff
		}
	}

	return 0
}
