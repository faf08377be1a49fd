package knee

import (
	"math"

	"github.com/grailbio/base/errors"
)

const (
	kdeBandwidth = 0.01
	kdeXSpace    = 10000
)

// GaussianKDE computes a 1-D Gaussian kernel density estimate over
// log10-transformed counts above 0.1% of the top count, used to refine
// the knee found by GetLeftBoundary.
//
// It returns (accepted, boundary, invCovariance, normFactor, err). err
// is non-nil only for the fatal "zero covariance" case. When accepted is
// false, boundary is either 0 (no qualifying local minimum) or a value
// rejected for being too far from expectCells; callers should keep their
// current knee estimate in both cases.
func GaussianKDE(freq []uint32, sortedIdx []int, expectCells int) (accepted bool, boundary int, invCovariance, normFactor float64, err error) {
	threshold := 0.001 * float64(freq[sortedIdx[0]])

	var logDataset []float64
	mean := 0.0
	for i := 0; i < len(freq); i++ {
		count := float64(freq[sortedIdx[i]])
		if count <= threshold {
			break
		}
		count = math.Log10(count)
		mean += count
		logDataset = append(logDataset, count)
	}

	n := len(logDataset)
	mean /= float64(n)

	covariance := 0.0
	for _, v := range logDataset {
		d := v - mean
		covariance += d * d
	}
	covariance = covariance * kdeBandwidth / float64(n-1)

	if covariance == 0 {
		return false, 0, 0, 0, errors.E("knee: zero covariance for Gaussian KDE")
	}

	invCovariance = 1.0 / covariance
	normFactor = math.Sqrt(2.0*math.Pi*covariance) * float64(n)

	decrement := (logDataset[0] - logDataset[n-1]) / float64(kdeXSpace)
	density := make([]float64, kdeXSpace)
	for i := 0; i < n; i++ {
		pred := logDataset[0]
		for j := 0; j < kdeXSpace; j, pred = j+1, pred-decrement {
			diff := logDataset[i] - pred
			energy := (diff * diff * invCovariance) / 2.0
			density[j] += math.Exp(-energy)
		}
	}

	var localMins []int
	for i := 1; i < kdeXSpace-1; i++ {
		if density[i-1] > density[i] && density[i] < density[i+1] {
			localMins = append(localMins, i)
		}
	}

	for _, minIdx := range localMins {
		freqThreshold := math.Pow(10, logDataset[0]-float64(minIdx)*decrement)
		b := 0
		// The reference walks this loop unconditionally, which is safe there
		// only because freqThreshold always falls below the smallest count
		// before running off the end of the vector; the explicit bound here
		// guards the same case Go cannot leave undefined.
		for b < len(sortedIdx) && freqThreshold <= float64(freq[sortedIdx[b]]) {
			b++
		}
		switch {
		case b > expectCells:
			return false, b, invCovariance, normFactor, nil
		case float64(expectCells)*0.1 > float64(b):
			continue
		default:
			return true, b, invCovariance, normFactor, nil
		}
	}

	return false, 0, invCovariance, normFactor, nil
}
