package knee

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

const (
	lowRegionMaxNumBarcodes = 1000
	lowConfidenceFraction   = 0.5
)

// Result is the outcome of SampleTrueBarcodes: the knee threshold,
// low-confidence count, and diagnostic KDE values.
type Result struct {
	Threshold     int
	LowN          int
	InvCovariance float64
	NormFactor    float64
}

// SampleTrueBarcodes runs the knee selection end to end: left-boundary
// knee detection, Gaussian KDE refinement, and low-confidence-region
// extension. freq/sortedIdx are as in GetLeftBoundary. maxNumBarcodes and
// lowRegionMinNumBarcodes come from the Options Record.
//
// It returns an error for the two fatal conditions: "cannot find left
// boundary" and zero KDE covariance.
func SampleTrueBarcodes(freq []uint32, sortedIdx []int, maxNumBarcodes, lowRegionMinNumBarcodes int) (Result, error) {
	topxBarcodes := maxNumBarcodes
	if len(freq) < topxBarcodes {
		topxBarcodes = len(freq)
	}

	topxBarcodes = GetLeftBoundary(sortedIdx, topxBarcodes, freq)
	if topxBarcodes == 0 {
		return Result{}, errors.E("knee: cannot find left boundary")
	}
	log.Printf("Knee found left boundary at %d", topxBarcodes)

	accepted, gaussBoundary, invCovariance, normFactor, err := GaussianKDE(freq, sortedIdx, topxBarcodes)
	if err != nil {
		return Result{}, err
	}
	if accepted {
		topxBarcodes = gaussBoundary
		log.Printf("Gauss corrected boundary at %d", gaussBoundary)
	} else {
		log.Printf("Gauss prediction %d too far from knee prediction, skipping it", gaussBoundary)
	}
	log.Printf("Learned invCovariance: %v normFactor: %v", invCovariance, normFactor)

	fractionTrueBarcodes := int(lowConfidenceFraction * float64(topxBarcodes))
	var lowRegionNumBarcodes int
	switch {
	case fractionTrueBarcodes < lowRegionMinNumBarcodes:
		lowRegionNumBarcodes = lowRegionMinNumBarcodes
	case fractionTrueBarcodes > lowRegionMaxNumBarcodes:
		lowRegionNumBarcodes = lowRegionMaxNumBarcodes
	default:
		lowRegionNumBarcodes = fractionTrueBarcodes
	}

	// Extend by the low-confidence region, then walk back over any tie run
	// at the new cutoff to imitate stable-sort tie handling: the final
	// threshold must sit at the first index of a tie-run, never inside one.
	topxBarcodes += lowRegionNumBarcodes
	cutoffFrequency := boundaryAt(freq, sortedIdx, topxBarcodes)
	nearestLeftFrequency := cutoffFrequency
	for nearestLeftFrequency == cutoffFrequency {
		topxBarcodes--
		lowRegionNumBarcodes--
		if topxBarcodes < 0 {
			break
		}
		nearestLeftFrequency = boundaryAt(freq, sortedIdx, topxBarcodes)
	}
	lowRegionNumBarcodes++
	topxBarcodes++

	log.Printf("Total %d barcodes (%d low confidence)", topxBarcodes, lowRegionNumBarcodes)

	return Result{
		Threshold:     topxBarcodes,
		LowN:          lowRegionNumBarcodes,
		InvCovariance: invCovariance,
		NormFactor:    normFactor,
	}, nil
}
