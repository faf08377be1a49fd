// scbarcode detects the cell-barcode knee in a droplet-based single-cell
// RNA-seq run, builds a soft map from near-miss observed barcodes to
// their likely true barcode, and optionally rewrites input FASTQ files
// with corrected barcodes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/scbarcode/barcode"
	"github.com/grailbio/scbarcode/bcio"
	"github.com/grailbio/scbarcode/config"
	"github.com/grailbio/scbarcode/counter"
	"github.com/grailbio/scbarcode/internal/model"
	"github.com/grailbio/scbarcode/knee"
	"github.com/grailbio/scbarcode/pipeline"
	"github.com/grailbio/scbarcode/protocol"
	"github.com/grailbio/scbarcode/rewriter"
	"github.com/grailbio/scbarcode/softmap"
)

var (
	protocolName = flag.String("protocol", "chromium", "Barcoding protocol: dropseq, chromium, gemcode, indrop:<w1>, or custom:<barcodeLength>,<umiLength>,<5p|3p>")
	r1Files      = flag.String("r1", "", "Comma-separated list of FASTQ files containing the barcode+UMI read")
	r2Files      = flag.String("r2", "", "Comma-separated list of FASTQ files containing the biological read (required with -dump-fastq)")
)

func scbarcodeUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -r1 <files> [-r2 <files>] [OPTIONS]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = scbarcodeUsage
	opts, finish := config.FromFlags(flag.CommandLine)
	shutdown := grail.Init()
	defer shutdown()

	if *r1Files == "" {
		log.Fatalf("missing required flag -r1")
	}

	finalOpts, orderedOptions := finish()
	*opts = finalOpts

	p, err := protocol.Lookup(*protocolName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := vcontext.Background()

	if err := os.MkdirAll(opts.OutputDirectory, 0755); err != nil {
		log.Fatalf("%v", err)
	}
	// Written unconditionally, even if quantification is skipped
	// downstream: the options a run was invoked with are always recorded.
	if err := bcio.WriteCmdInfo(ctx, filepath.Join(opts.OutputDirectory, "cmd_info.json"), orderedOptions); err != nil {
		log.Fatalf("%v", err)
	}

	if err := run(ctx, *opts, p, splitFiles(*r1Files), splitFiles(*r2Files), os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func splitFiles(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// run builds the set of true barcodes (either from a supplied whitelist
// or by running the density pipeline and knee selector), builds the
// soft map, dumps the requested artifacts, and optionally rewrites
// FASTQ input. Corrected FASTQ output (when requested) is written to
// stdout, matching the reference's std::cout-based writeFastq.
func run(ctx context.Context, opts config.Options, p barcode.Protocol, r1, r2 []string, stdout io.Writer) error {
	if opts.NoBarcode {
		// Boundary case: barcode correction is skipped entirely and every
		// read is attributed to a single synthetic true barcode, "AAA". No
		// pipeline, knee search, or soft map runs; since nothing is ever
		// extracted that could equal "AAA", a FASTQ rewrite has nothing
		// meaningful to resolve against and is skipped too.
		log.Printf("no-barcode mode: skipping barcode correction")
		if opts.DumpFastq {
			log.Printf("no-barcode mode: -dump-fastq has no effect, skipping")
		}
		return nil
	}

	c := counter.New()
	seen, used, err := pipeline.Run(ctx, r1, p, opts, c)
	if err != nil {
		return err
	}
	log.Printf("density pipeline: %d reads seen, %d barcodes extracted", seen, used)

	// dumpLimit is how many ranked barcodes frequency.txt lists: the
	// knee selector's threshold when it ran, or every whitelisted
	// barcode when selection was bypassed.
	var (
		trueBarcodes map[string]struct{}
		dumpLimit    int
	)
	if opts.WhitelistFile != "" {
		trueBarcodes, err = bcio.ReadWhitelist(ctx, opts.WhitelistFile)
		if err != nil {
			return err
		}
		dumpLimit = len(trueBarcodes)
		log.Printf("loaded %d whitelisted barcodes, bypassing knee selection", len(trueBarcodes))
	} else {
		trueBarcodes, dumpLimit, err = selectTrueBarcodes(c, opts)
		if err != nil {
			return err
		}
	}

	sm, err := softmap.BuildSoftMap(trueBarcodes, c, opts.FreqThreshold, model.FrequencyWeighted{}, opts.NoSoftMap)
	if err != nil {
		return err
	}
	logAmbiguousBarcodeSummary(sm, c)

	if opts.DumpFeatures {
		if err := dumpFrequency(ctx, opts, c, dumpLimit); err != nil {
			return err
		}
	}
	if opts.DumpBarcodeMap {
		if err := bcio.DumpBarcodeSoftMaps(ctx, filepath.Join(opts.OutputDirectory, "barcodeSoftMaps.txt"), sm); err != nil {
			return err
		}
	}
	if opts.DumpUmiToolsMap {
		rng := rand.New(rand.NewSource(0))
		if err := bcio.DumpUmitoolsMap(ctx, filepath.Join(opts.OutputDirectory, "umitoolsMap.txt"), sm, rng); err != nil {
			return err
		}
	}
	if opts.DumpFastq {
		return rewriteAll(ctx, trueBarcodes, sm, p, r1, r2, stdout)
	}
	return nil
}

// selectTrueBarcodes runs the Knee Selector over a frequency snapshot of
// c and returns the accepted true barcodes (the SampleTrueBarcodes
// threshold plus the low-confidence extension) along with that
// threshold itself, so callers can cap other dumps at the same knee
// boundary rather than at the search's upper bound.
func selectTrueBarcodes(c *counter.Counter, opts config.Options) (map[string]struct{}, int, error) {
	entries := c.Snapshot()
	keys := make([]string, len(entries))
	freq := make([]uint32, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		freq[i] = e.Count
	}
	sortedIdx := counter.SortIndexes(freq)

	result, err := knee.SampleTrueBarcodes(freq, sortedIdx, opts.MaxNumBarcodes, opts.LowRegionMinNumBarcodes)
	if err != nil {
		return nil, 0, err
	}

	trueBarcodes := make(map[string]struct{}, result.Threshold)
	for i := 0; i < result.Threshold && i < len(sortedIdx); i++ {
		trueBarcodes[keys[sortedIdx[i]]] = struct{}{}
	}
	return trueBarcodes, result.Threshold, nil
}

// dumpFrequency writes frequency.txt listing the limit highest-ranked
// barcodes by count: the knee threshold from selectTrueBarcodes, or the
// whitelist size when selection was bypassed.
func dumpFrequency(ctx context.Context, opts config.Options, c *counter.Counter, limit int) error {
	entries := c.Snapshot()
	keys := make([]string, len(entries))
	counts := make([]uint32, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		counts[i] = e.Count
	}
	sortedIdx := counter.SortIndexes(counts)
	return bcio.DumpFrequency(ctx, filepath.Join(opts.OutputDirectory, "frequency.txt"), keys, counts, sortedIdx, limit)
}

// logAmbiguousBarcodeSummary reports aggregate soft-map statistics: how
// many observed barcodes were ambiguous (soft-assigned to 2+
// candidates), how many reads that represents, how many distinct true
// barcodes are reachable through ambiguous reads, and the expected
// per-cell read gain from recovering them.
func logAmbiguousBarcodeSummary(sm softmap.SoftMap, c *counter.Counter) {
	ambiguousBarcodes := 0
	ambiguousReads := uint64(0)
	reachableTrue := map[string]struct{}{}
	for observed, candidates := range sm {
		if len(candidates) < 2 {
			continue
		}
		ambiguousBarcodes++
		if n, ok := c.Find(observed); ok {
			ambiguousReads += uint64(n)
		}
		for _, cand := range candidates {
			reachableTrue[cand.TrueBarcode] = struct{}{}
		}
	}
	expectedGain := 0.0
	if len(reachableTrue) > 0 {
		expectedGain = float64(ambiguousReads) / float64(len(reachableTrue))
	}
	log.Printf("soft map: %d ambiguous barcodes, %d soft-assignable reads, %d true barcodes reachable, %.2f expected gain per cell",
		ambiguousBarcodes, ambiguousReads, len(reachableTrue), expectedGain)
}

// rewriteAll corrects and rewrites every (r1, r2) file pair, writing the
// corrected biological reads to stdout as a single concatenated FASTQ
// stream, matching the reference's std::cout << writeFastq output.
func rewriteAll(ctx context.Context, trueBarcodes map[string]struct{}, sm softmap.SoftMap, p barcode.Protocol, r1, r2 []string, stdout io.Writer) error {
	if len(r1) != len(r2) {
		return errors.E("rewriter: -r1 and -r2 must list the same number of files", len(r1), len(r2))
	}

	total := 0
	for i := range r1 {
		n, err := rewriter.Rewrite(ctx, r1[i], r2[i], trueBarcodes, sm, p, stdout)
		if err != nil {
			return err
		}
		total += n
	}
	log.Printf("rewriter: wrote %d corrected reads to stdout", total)
	return nil
}
