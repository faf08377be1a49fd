package softmap

import (
	"testing"

	"github.com/grailbio/scbarcode/counter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct{}

func (stubModel) CoinToss(observed string, candidates []string, freq *counter.Counter) ([]Candidate, error) {
	result := make([]Candidate, len(candidates))
	for i, c := range candidates {
		result[i] = Candidate{TrueBarcode: c, Probability: 1.0 / float64(len(candidates))}
	}
	return result, nil
}

func TestNeighbors1Count(t *testing.T) {
	n := Neighbors1("AAAA")
	assert.Len(t, n, 12) // 3 * length
	for _, neighbor := range n {
		assert.NotEqual(t, "AAAA", neighbor)
	}
}

func TestBuildSoftMapFindsNeighbor(t *testing.T) {
	c := counter.New()
	for i := 0; i < 1000; i++ {
		c.Upsert("AAAAAAAAAAAAAAAA")
	}
	for i := 0; i < 20; i++ {
		c.Upsert("AAAAAAAAACAAAAAA") // Hamming distance 1 from the true barcode.
	}

	trueBarcodes := map[string]struct{}{"AAAAAAAAAAAAAAAA": {}}
	sm, err := BuildSoftMap(trueBarcodes, c, 10, stubModel{}, false)
	require.NoError(t, err)

	candidates, ok := sm["AAAAAAAAACAAAAAA"]
	require.True(t, ok)
	require.Len(t, candidates, 1)
	assert.Equal(t, "AAAAAAAAAAAAAAAA", candidates[0].TrueBarcode)
}

func TestBuildSoftMapHardMode(t *testing.T) {
	c := counter.New()
	for i := 0; i < 1000; i++ {
		c.Upsert("AAAAAAAAAAAAAAAA")
	}
	for i := 0; i < 20; i++ {
		c.Upsert("AAAAAAAAACAAAAAA")
	}
	trueBarcodes := map[string]struct{}{"AAAAAAAAAAAAAAAA": {}}
	sm, err := BuildSoftMap(trueBarcodes, c, 10, stubModel{}, true)
	require.NoError(t, err)

	for _, candidates := range sm {
		require.Len(t, candidates, 1)
		assert.Equal(t, 1.0, candidates[0].Probability)
	}
}

func TestBuildSoftMapFiltersBelowThreshold(t *testing.T) {
	c := counter.New()
	for i := 0; i < 1000; i++ {
		c.Upsert("AAAAAAAAAAAAAAAA")
	}
	for i := 0; i < 5; i++ { // below freqThreshold=10
		c.Upsert("AAAAAAAAACAAAAAA")
	}
	trueBarcodes := map[string]struct{}{"AAAAAAAAAAAAAAAA": {}}
	sm, err := BuildSoftMap(trueBarcodes, c, 10, stubModel{}, false)
	require.NoError(t, err)
	_, ok := sm["AAAAAAAAACAAAAAA"]
	assert.False(t, ok)
}
