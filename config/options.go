// Package config defines the Options Record and the flag.FlagSet binding
// used to populate it, following cmd/bio-pileup's DefaultOpts +
// flag-var-block convention.
package config

// Options mirrors the Options Record: the full set of knobs that govern
// a run of the barcode-preprocessing core, independent of how they were
// supplied (flags, a config file, or constructed directly by a caller).
type Options struct {
	MaxNumBarcodes          int
	LowRegionMinNumBarcodes int
	FreqThreshold           uint32
	NoSoftMap               bool
	DumpFeatures            bool
	DumpBarcodeMap          bool
	DumpUmiToolsMap         bool
	DumpFastq               bool
	NoBarcode               bool
	Quiet                   bool
	NumConsumerThreads      int
	NumParsingThreads       int
	OutputDirectory         string
	WhitelistFile           string
}

// DefaultOptions holds the zero-configuration defaults, following
// cmd/bio-pileup/main.go's snp.DefaultOpts pattern of a package-level
// value flag definitions reference directly.
var DefaultOptions = Options{
	MaxNumBarcodes:          100000,
	LowRegionMinNumBarcodes: 2000,
	FreqThreshold:           10,
	NumConsumerThreads:      1,
	NumParsingThreads:       1,
	OutputDirectory:         ".",
}
