package pipeline

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/scbarcode/barcode"
	"github.com/grailbio/scbarcode/config"
	"github.com/grailbio/scbarcode/counter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProtocol = barcode.Protocol{Name: "test", BarcodeLength: 4, UMILength: 2, End: barcode.FivePrime}

func writeFastqFile(t *testing.T, path string, seqs []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for i, seq := range seqs {
		_, err := f.WriteString("@read")
		require.NoError(t, err)
		_, err = f.WriteString(string(rune('0' + i)))
		require.NoError(t, err)
		f.WriteString("\n" + seq + "\n+\n" + string(make([]byte, len(seq))) + "\n")
	}
}

func TestRunCountsSeenAndUsed(t *testing.T) {
	dir, err := os.MkdirTemp("", "pipeline")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "reads.fastq")
	writeFastqFile(t, path, []string{"AAAAGG", "CCCCTT", "N"}) // third is too short

	c := counter.New()
	ctx := vcontext.Background()
	opts := config.DefaultOptions
	seen, used, err := Run(ctx, []string{path}, testProtocol, opts, c)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seen)
	assert.Equal(t, uint64(2), used)
	assert.True(t, c.Contains("AAAA"))
	assert.True(t, c.Contains("CCCC"))
}

func TestRunHandlesGzip(t *testing.T) {
	dir, err := os.MkdirTemp("", "pipeline")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "reads.fastq.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("@read0\nAAAAGG\n+\nIIIIII\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	c := counter.New()
	ctx := vcontext.Background()
	seen, used, err := Run(ctx, []string{path}, testProtocol, config.DefaultOptions, c)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seen)
	assert.Equal(t, uint64(1), used)
}

func TestRunFatalOnMissingFile(t *testing.T) {
	c := counter.New()
	ctx := vcontext.Background()
	_, _, err := Run(ctx, []string{"/nonexistent/path.fastq"}, testProtocol, config.DefaultOptions, c)
	assert.Error(t, err)
}

func TestNumConsumersCollapsesSmallBudget(t *testing.T) {
	assert.Equal(t, 1, numConsumers(config.Options{NumConsumerThreads: 1, NumParsingThreads: 1}))
	assert.Equal(t, 4, numConsumers(config.Options{NumConsumerThreads: 4, NumParsingThreads: 2}))
}
