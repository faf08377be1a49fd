// Package pipeline reads FASTQ input files with a parser goroutine
// feeding a bounded channel of raw reads, drained by a configurable
// number of consumer goroutines that extract barcodes and upsert them
// into a Frequency Counter. It is grounded directly on
// cmd/bio-fusion/main.go's readFASTQ/processRequests/processFASTQ
// producer-consumer pipeline, generalized from fusion candidates to
// barcode upserts.
package pipeline

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/scbarcode/barcode"
	"github.com/grailbio/scbarcode/config"
	"github.com/grailbio/scbarcode/counter"
	"github.com/klauspost/compress/gzip"
)

// miniBatchSize is the number of reads per batch handed from the reader
// to the consumers, following the reference's fixed-size batching of
// barcode reads before handoff.
const miniBatchSize = 5000

// progressInterval is how many seen reads elapse between progress log
// lines, matching cmd/bio-fusion/main.go's "%dMi readpairs" cadence
// scaled down to a coarser "Million barcodes" granularity.
const progressInterval = 500000

type rawRead struct {
	seq string
}

// numConsumers decides how many consumer goroutines to run: a total
// configured thread budget of 3 or fewer collapses to a single consumer
// so a small-machine run never blocks on an empty pool.
func numConsumers(opts config.Options) int {
	total := opts.NumConsumerThreads + opts.NumParsingThreads
	if total <= 3 {
		return 1
	}
	if opts.NumConsumerThreads > 0 {
		return opts.NumConsumerThreads
	}
	return 1
}

// Run reads every FASTQ file in files (transparently gunzipping names
// ending in .gz), extracts a (barcode, UMI) pair from each read's
// sequence using p, and upserts every extracted barcode into c. It
// returns the total number of reads seen and the number from which a
// barcode was successfully extracted ("used"). A parser I/O error is
// fatal: it is wrapped and returned immediately once every goroutine has
// been joined, regardless of which files had already been processed.
func Run(ctx context.Context, files []string, p barcode.Protocol, opts config.Options, c *counter.Counter) (totalSeen, used uint64, err error) {
	batches := make(chan []rawRead, 4)

	var (
		seenCount  uint64
		usedCount  uint64
		progressMu sync.Mutex
		lastLogged uint64
		parseErr   error
		parseErrMu sync.Mutex
	)

	setParseErr := func(e error) {
		parseErrMu.Lock()
		if parseErr == nil {
			parseErr = e
		}
		parseErrMu.Unlock()
	}

	var consumeWG sync.WaitGroup
	n := numConsumers(opts)
	for i := 0; i < n; i++ {
		consumeWG.Add(1)
		go func() {
			defer consumeWG.Done()
			for batch := range batches {
				for _, r := range batch {
					seen := atomic.AddUint64(&seenCount, 1)
					bc, _, ok := barcode.Extract(r.seq, p)
					if ok {
						c.Upsert(bc)
						atomic.AddUint64(&usedCount, 1)
					}
					if !opts.Quiet && seen/progressInterval > 0 {
						progressMu.Lock()
						if seen-lastLogged >= progressInterval {
							lastLogged = seen - seen%progressInterval
							log.Printf("processed %.1f Million barcodes", float64(lastLogged)/1e6)
						}
						progressMu.Unlock()
					}
				}
			}
		}()
	}

	for _, path := range files {
		if err := parseFile(ctx, path, batches); err != nil {
			setParseErr(errors.E(err, "pipeline: fastq parser", path))
			break
		}
	}
	close(batches)
	consumeWG.Wait()

	parseErrMu.Lock()
	err = parseErr
	parseErrMu.Unlock()
	return atomic.LoadUint64(&seenCount), atomic.LoadUint64(&usedCount), err
}

func parseFile(ctx context.Context, path string, batches chan<- []rawRead) error {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "pipeline: opening", path)
	}
	defer in.Close(ctx) // nolint:errcheck

	var r io.Reader = in.Reader(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return errors.E(err, "pipeline: gzip", path)
		}
		defer gz.Close() // nolint:errcheck
		r = gz
	}

	batch := make([]rawRead, 0, miniBatchSize)
	err = scanBarcodeSeqs(r, func(seq string) {
		batch = append(batch, rawRead{seq: seq})
		if len(batch) == miniBatchSize {
			batches <- batch
			batch = make([]rawRead, 0, miniBatchSize)
		}
	})
	if len(batch) > 0 {
		batches <- batch
	}
	return err
}

// scanBarcodeSeqs walks r as a four-line-per-record FASTQ stream and
// calls emit with the sequence line of every record. It only validates
// the "@"/"+" line markers that the reference's FASTQ reader checks
// before trusting record boundaries; quality and ID lines are read and
// discarded since the density pipeline never needs them.
func scanBarcodeSeqs(r io.Reader, emit func(seq string)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		idLine := sc.Text()
		if len(idLine) == 0 || idLine[0] != '@' {
			return errors.E("pipeline: malformed fastq record, want '@' id line, got", idLine)
		}
		if !sc.Scan() {
			return errors.E("pipeline: truncated fastq record after id line", idLine)
		}
		seq := sc.Text()
		if !sc.Scan() {
			return errors.E("pipeline: truncated fastq record after seq line", idLine)
		}
		sepLine := sc.Text()
		if len(sepLine) == 0 || sepLine[0] != '+' {
			return errors.E("pipeline: malformed fastq record, want '+' separator line, got", sepLine)
		}
		if !sc.Scan() {
			return errors.E("pipeline: truncated fastq record after separator line", idLine)
		}
		emit(seq)
	}
	return sc.Err()
}
