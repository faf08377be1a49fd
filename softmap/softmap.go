package softmap

import (
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/log"
	"github.com/grailbio/scbarcode/counter"
)

// Candidate is one (true barcode, posterior probability) pair.
type Candidate struct {
	TrueBarcode string
	Probability float64
}

// SoftMap is the probabilistic mapping from an observed, non-true
// barcode to an ordered list of true-barcode candidates.
type SoftMap map[string][]Candidate

// BarcodeModel is the pluggable collaborator for assigning posterior
// probabilities over candidate true barcodes. It must be deterministic
// given the same inputs and return probabilities in [0, 1];
// normalization is expected by consumers but not enforced here.
type BarcodeModel interface {
	CoinToss(observed string, candidates []string, freq *counter.Counter) ([]Candidate, error)
}

// BuildSoftMap enumerates Hamming-1 neighbors of every true barcode,
// keeps neighbors observed with frequency above freqThreshold that are
// not themselves true barcodes, and asks model to assign posteriors for
// each resulting observed barcode.
//
// If noSoftMap is set, every candidate list is truncated to its first
// element with probability overwritten to 1.0.
func BuildSoftMap(trueBarcodes map[string]struct{}, freq *counter.Counter, freqThreshold uint32, model BarcodeModel, noSoftMap bool) (SoftMap, error) {
	// candidates[observed] accumulates the true barcodes it neighbors.
	candidates := map[string][]string{}

	trueList := make([]string, 0, len(trueBarcodes))
	for tb := range trueBarcodes {
		trueList = append(trueList, tb)
	}
	// Stable ordering makes the neighbor fan-out deterministic even
	// though the True-Barcode Set is an unordered map; farm-hash the
	// barcode to shard/order the work without relying on Go map order.
	sort.Slice(trueList, func(i, j int) bool {
		return farm.Hash64WithSeed([]byte(trueList[i]), 0) < farm.Hash64WithSeed([]byte(trueList[j]), 0)
	})

	wrongWhitelistCount := 0
	for _, tb := range trueList {
		for _, n := range Neighbors1(tb) {
			if _, isTrue := trueBarcodes[n]; isTrue {
				continue
			}
			count, found := freq.Find(n)
			if found && count > freqThreshold {
				candidates[n] = append(candidates[n], tb)
			}
		}
		if !freq.Contains(tb) {
			wrongWhitelistCount++
		}
	}
	if len(trueBarcodes)-wrongWhitelistCount < 50 {
		log.Printf("warning: %d whitelisted barcodes with 0 frequency", wrongWhitelistCount)
	}

	sm := SoftMap{}
	for observed, tbs := range candidates {
		result, err := model.CoinToss(observed, tbs, freq)
		if err != nil {
			return nil, err
		}
		sm[observed] = result
	}

	if noSoftMap {
		for observed, result := range sm {
			if len(result) == 0 {
				continue
			}
			first := result[0]
			first.Probability = 1.0
			sm[observed] = []Candidate{first}
		}
	}

	return sm, nil
}
