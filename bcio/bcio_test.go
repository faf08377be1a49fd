package bcio

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/scbarcode/softmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpFrequencyDescendingOrder(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	keys := []string{"AAAA", "CCCC", "GGGG"}
	counts := []uint32{5, 50, 0}
	sortedIdx := []int{1, 0, 2}
	path := filepath.Join(dir, "frequency.txt")
	require.NoError(t, DumpFrequency(ctx, path, keys, counts, sortedIdx, 10))

	got, err := ReadFrequencyFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"CCCC": 50, "AAAA": 5}, got)
}

func TestDumpFrequencyStopsAtN(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	keys := []string{"AAAA", "CCCC", "GGGG"}
	counts := []uint32{30, 20, 10}
	sortedIdx := []int{0, 1, 2}
	path := filepath.Join(dir, "frequency.txt")
	require.NoError(t, DumpFrequency(ctx, path, keys, counts, sortedIdx, 2))

	got, err := ReadFrequencyFile(ctx, path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "GGGG")
}

func TestWhitelistRoundTrip(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "whitelist.txt")
	require.NoError(t, os.WriteFile(path, []byte("AAAA\nCCCC\n\nGGGG\n"), 0644))

	set, err := ReadWhitelist(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"AAAA": {}, "CCCC": {}, "GGGG": {}}, set)
}

func TestDumpBarcodeSoftMaps(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	sm := softmap.SoftMap{
		"AAAC": {{TrueBarcode: "AAAA", Probability: 0.75}, {TrueBarcode: "AACA", Probability: 0.25}},
	}
	path := filepath.Join(dir, "barcodeSoftMaps.txt")
	require.NoError(t, DumpBarcodeSoftMaps(ctx, path, sm))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AAAC\t2\tAAAA\t0.75\tAACA\t0.25\n", string(data))
}

func TestDumpUmitoolsMapInverts(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	sm := softmap.SoftMap{
		"AAAC": {{TrueBarcode: "AAAA", Probability: 1.0}},
	}
	path := filepath.Join(dir, "umitoolsMap.txt")
	// A sole candidate is taken directly, without a random draw.
	require.NoError(t, DumpUmitoolsMap(ctx, path, sm, rand.New(rand.NewSource(1))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AAAA\tAAAC\n", string(data))
}

func TestDumpUmitoolsMapSkipsUnresolved(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	sm := softmap.SoftMap{
		// Two candidates, both with probability 0: the sampler's draw is
		// always >= 0, so neither is ever accepted.
		"AAAC": {{TrueBarcode: "AAAA", Probability: 0.0}, {TrueBarcode: "ACCA", Probability: 0.0}},
	}
	path := filepath.Join(dir, "umitoolsMap.txt")
	require.NoError(t, DumpUmitoolsMap(ctx, path, sm, rand.New(rand.NewSource(1))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, string(data))
}

func TestDumpUmitoolsMapSingleCandidateSkipsDraw(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	sm := softmap.SoftMap{
		// A lone candidate is accepted outright even with probability 0,
		// since the random draw only runs when there is more than one.
		"AAAC": {{TrueBarcode: "AAAA", Probability: 0.0}},
	}
	path := filepath.Join(dir, "umitoolsMap.txt")
	require.NoError(t, DumpUmitoolsMap(ctx, path, sm, rand.New(rand.NewSource(1))))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AAAA\tAAAC\n", string(data))
}

func TestDumpFrequencyCompressedSuffix(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	keys := []string{"AAAA"}
	counts := []uint32{7}
	sortedIdx := []int{0}
	path := filepath.Join(dir, "frequency.txt.sz")
	require.NoError(t, DumpFrequency(ctx, path, keys, counts, sortedIdx, 10))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "AAAA\t7\n", string(data)) // snappy-framed, not plaintext
	assert.NotEmpty(t, data)
}

func TestWriteCmdInfo(t *testing.T) {
	ctx := vcontext.Background()
	dir, err := os.MkdirTemp("", "bcio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "cmd_info.json")
	opts := []OrderedOption{{Key: "numThreads", Value: "8"}, {Key: "expectCells", Value: "3000"}}
	require.NoError(t, WriteCmdInfo(ctx, path, opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"numThreads"`)
	assert.Contains(t, string(data), `"3000"`)
}
