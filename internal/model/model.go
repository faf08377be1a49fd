// Package model supplies the default, deterministic BarcodeModel
// collaborator softmap.BuildSoftMap leaves pluggable: a
// frequency-weighted posterior, the simplest deterministic choice
// consistent with the contract that probabilities lie in [0, 1].
package model

import (
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/scbarcode/counter"
	"github.com/grailbio/scbarcode/softmap"
)

// FrequencyWeighted is a BarcodeModel that assigns each candidate true
// barcode a posterior proportional to its observed frequency:
// freq[candidate] / sum(freq[candidates]). Ties are broken by barcode
// string so that results are reproducible across runs.
type FrequencyWeighted struct{}

// CoinToss implements softmap.BarcodeModel.
func (FrequencyWeighted) CoinToss(observed string, candidates []string, freq *counter.Counter) ([]softmap.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	total := uint64(0)
	counts := make(map[string]uint32, len(candidates))
	for _, c := range candidates {
		if hamming, err := matchr.Hamming(observed, c); err != nil || hamming != 1 {
			return nil, errors.E("model: candidate", c, "is not a Hamming-1 neighbor of", observed)
		}
		n, found := freq.Find(c)
		if !found {
			return nil, errors.E("model: candidate", c, "not present in frequency counter")
		}
		counts[c] = n
		total += uint64(n)
	}

	result := make([]softmap.Candidate, 0, len(candidates))
	for _, c := range candidates {
		p := 0.0
		if total > 0 {
			p = float64(counts[c]) / float64(total)
		}
		result = append(result, softmap.Candidate{TrueBarcode: c, Probability: p})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Probability != result[j].Probability {
			return result[i].Probability > result[j].Probability
		}
		return result[i].TrueBarcode < result[j].TrueBarcode
	})
	return result, nil
}
