package config

import (
	"flag"

	"github.com/grailbio/scbarcode/bcio"
)

// FromFlags registers Options' fields onto fs using DefaultOptions as
// defaults, in the flag-var-block style of cmd/bio-pileup/main.go. The
// returned closure must be called after fs.Parse to populate opts and
// the ordered option list (for cmd_info.json) from the parsed flags.
func FromFlags(fs *flag.FlagSet) (opts *Options, finish func() (Options, []bcio.OrderedOption)) {
	maxNumBarcodes := fs.Int("max-num-barcodes", DefaultOptions.MaxNumBarcodes, "Number of top-ranked barcodes the knee search considers")
	lowRegionMinNumBarcodes := fs.Int("low-region-min-num-barcodes", DefaultOptions.LowRegionMinNumBarcodes, "Minimum number of low-confidence barcodes appended beyond the knee threshold")
	freqThreshold := fs.Uint("freq-threshold", uint(DefaultOptions.FreqThreshold), "A neighbor must be observed more than this many times to be soft-mapped")
	noSoftMap := fs.Bool("no-soft-map", DefaultOptions.NoSoftMap, "Disable soft-mapping; every corrected barcode maps to exactly one true barcode with probability 1")
	dumpFeatures := fs.Bool("dump-features", DefaultOptions.DumpFeatures, "Write frequency.txt")
	dumpBarcodeMap := fs.Bool("dump-barcode-map", DefaultOptions.DumpBarcodeMap, "Write barcodeSoftMaps.txt")
	dumpUmiToolsMap := fs.Bool("dump-umi-tools-map", DefaultOptions.DumpUmiToolsMap, "Write umitoolsMap.txt")
	dumpFastq := fs.Bool("dump-fastq", DefaultOptions.DumpFastq, "Rewrite input FASTQ files with corrected barcodes")
	noBarcode := fs.Bool("no-barcode", DefaultOptions.NoBarcode, "Skip barcode correction entirely; treat every read as belonging to a single synthetic true barcode")
	quiet := fs.Bool("quiet", DefaultOptions.Quiet, "Suppress progress logging")
	numConsumerThreads := fs.Int("num-consumer-threads", DefaultOptions.NumConsumerThreads, "Number of goroutines consuming parsed reads")
	numParsingThreads := fs.Int("num-parsing-threads", DefaultOptions.NumParsingThreads, "Parsing threads counted toward the thread budget that decides the consumer count; input is always parsed by a single goroutine")
	outputDirectory := fs.String("output-dir", DefaultOptions.OutputDirectory, "Directory to write dump files to")
	whitelistFile := fs.String("whitelist", DefaultOptions.WhitelistFile, "Path to an externally supplied barcode whitelist; when set, the knee selector is bypassed")

	opts = &Options{}
	finish = func() (Options, []bcio.OrderedOption) {
		*opts = Options{
			MaxNumBarcodes:          *maxNumBarcodes,
			LowRegionMinNumBarcodes: *lowRegionMinNumBarcodes,
			FreqThreshold:           uint32(*freqThreshold),
			NoSoftMap:               *noSoftMap,
			DumpFeatures:            *dumpFeatures,
			DumpBarcodeMap:          *dumpBarcodeMap,
			DumpUmiToolsMap:         *dumpUmiToolsMap,
			DumpFastq:               *dumpFastq,
			NoBarcode:               *noBarcode,
			Quiet:                   *quiet,
			NumConsumerThreads:      *numConsumerThreads,
			NumParsingThreads:       *numParsingThreads,
			OutputDirectory:         *outputDirectory,
			WhitelistFile:           *whitelistFile,
		}
		ordered := []bcio.OrderedOption{
			{Key: "max-num-barcodes", Value: fs.Lookup("max-num-barcodes").Value.String()},
			{Key: "low-region-min-num-barcodes", Value: fs.Lookup("low-region-min-num-barcodes").Value.String()},
			{Key: "freq-threshold", Value: fs.Lookup("freq-threshold").Value.String()},
			{Key: "no-soft-map", Value: fs.Lookup("no-soft-map").Value.String()},
			{Key: "dump-features", Value: fs.Lookup("dump-features").Value.String()},
			{Key: "dump-barcode-map", Value: fs.Lookup("dump-barcode-map").Value.String()},
			{Key: "dump-umi-tools-map", Value: fs.Lookup("dump-umi-tools-map").Value.String()},
			{Key: "dump-fastq", Value: fs.Lookup("dump-fastq").Value.String()},
			{Key: "no-barcode", Value: fs.Lookup("no-barcode").Value.String()},
			{Key: "quiet", Value: fs.Lookup("quiet").Value.String()},
			{Key: "num-consumer-threads", Value: fs.Lookup("num-consumer-threads").Value.String()},
			{Key: "num-parsing-threads", Value: fs.Lookup("num-parsing-threads").Value.String()},
			{Key: "output-dir", Value: fs.Lookup("output-dir").Value.String()},
			{Key: "whitelist", Value: fs.Lookup("whitelist").Value.String()},
		}
		return *opts, ordered
	}
	return opts, finish
}
