// Package softmap builds the probabilistic map from observed,
// non-whitelisted barcodes to true-barcode candidates: for every true
// barcode, it enumerates 1-Hamming neighbors, filters them by frequency,
// and invokes a pluggable BarcodeModel to assign posterior probabilities
// over candidate true barcodes.
package softmap

var bases = [4]byte{'A', 'C', 'G', 'T'}

// Neighbors1 returns every barcode within Hamming distance 1 of bc over
// the alphabet {A,C,G,T}: 3*len(bc) neighbors, excluding bc itself.
// Grounded on umi/correction.go's allKmers, specialized to single-position
// substitution.
func Neighbors1(bc string) []string {
	neighbors := make([]string, 0, 3*len(bc))
	b := []byte(bc)
	for i := range b {
		original := b[i]
		for _, base := range bases {
			if base == original {
				continue
			}
			b[i] = base
			neighbors = append(neighbors, string(b))
		}
		b[i] = original
	}
	return neighbors
}
