package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFlagsDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, finish := FromFlags(fs)
	require.NoError(t, fs.Parse(nil))

	opts, ordered := finish()
	assert.Equal(t, DefaultOptions, opts)
	assert.Len(t, ordered, 14)
}

func TestFromFlagsOverride(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, finish := FromFlags(fs)
	require.NoError(t, fs.Parse([]string{"-max-num-barcodes=500", "-quiet=true"}))

	opts, ordered := finish()
	assert.Equal(t, 500, opts.MaxNumBarcodes)
	assert.True(t, opts.Quiet)

	found := false
	for _, o := range ordered {
		if o.Key == "max-num-barcodes" {
			assert.Equal(t, "500", o.Value)
			found = true
		}
	}
	assert.True(t, found)
}
