// Package rewriter implements the optional FASTQ rewrite stage: for each
// barcode/biological read pair, it resolves the observed barcode to a
// corrected true barcode (directly, via the soft map's single-draw
// sampler, or by skipping the read), then emits the biological read with
// the corrected barcode and UMI folded into its ID line.
//
// It is grounded on cmd/bio-fusion/main.go's readFASTQ (the paired-scan
// consumption loop, here walking a barcode stream and a biological-read
// stream record by record instead of two ends of one fragment), with
// its own minimal four-line record reader and writer in place of a
// general-purpose FASTQ package.
package rewriter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/scbarcode/barcode"
	"github.com/grailbio/scbarcode/softmap"
	pkgerrors "github.com/pkg/errors"
)

// progressInterval is the read-count cadence at which Rewrite logs progress.
const progressInterval = 500000

// fastqRecord is one four-line FASTQ record: ID, sequence, and quality.
// The "+" separator line is validated but not kept.
type fastqRecord struct {
	id, seq, qual string
}

// recordReader walks a four-line-per-record FASTQ stream.
type recordReader struct {
	sc  *bufio.Scanner
	err error
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{sc: bufio.NewScanner(r)}
}

// next reads the next record, returning ok=false at end of stream or on
// a malformed record (recorded in err).
func (rr *recordReader) next(rec *fastqRecord) bool {
	if !rr.sc.Scan() {
		rr.err = rr.sc.Err()
		return false
	}
	id := rr.sc.Text()
	if len(id) == 0 || id[0] != '@' {
		rr.err = errors.E("rewriter: malformed fastq record, want '@' id line, got", id)
		return false
	}
	if !rr.sc.Scan() {
		rr.err = errors.E("rewriter: truncated fastq record after id line", id)
		return false
	}
	seq := rr.sc.Text()
	if !rr.sc.Scan() {
		rr.err = errors.E("rewriter: truncated fastq record after seq line", id)
		return false
	}
	sep := rr.sc.Text()
	if len(sep) == 0 || sep[0] != '+' {
		rr.err = errors.E("rewriter: malformed fastq record, want '+' separator line, got", sep)
		return false
	}
	if !rr.sc.Scan() {
		rr.err = errors.E("rewriter: truncated fastq record after separator line", id)
		return false
	}
	rec.id, rec.seq, rec.qual = id, seq, rr.sc.Text()
	return true
}

// pairReader advances a barcode-read stream and a biological-read stream
// in lockstep, failing if one is shorter than the other: the two inputs
// are expected to be the mate-1/mate-2 halves of the same read set.
type pairReader struct {
	bc, bio *recordReader
}

func (pr *pairReader) scan(bc, bio *fastqRecord) bool {
	ok1 := pr.bc.next(bc)
	ok2 := pr.bio.next(bio)
	if ok1 != ok2 {
		pr.bc.err = errors.E("rewriter: barcode and biological read streams have a different number of records")
		return false
	}
	return ok1 && ok2
}

func (pr *pairReader) err() error {
	if pr.bc.err != nil {
		return pr.bc.err
	}
	return pr.bio.err
}

// writeRecord emits rec as a four-line FASTQ record.
func writeRecord(w io.Writer, rec *fastqRecord) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n+\n%s\n", rec.id, rec.seq, rec.qual)
	return err
}

// Rewrite reads paired barcode/biological FASTQ files, corrects each
// read's barcode using trueBarcodes and sm, and writes the biological
// read to out with its ID line rewritten to "@name_correctedBarcode_umi".
// Reads whose barcode is neither a true barcode nor present in sm are
// dropped. It returns the number of reads written.
func Rewrite(ctx context.Context, barcodeReadFile, bioReadFile string, trueBarcodes map[string]struct{}, sm softmap.SoftMap, p barcode.Protocol, out io.Writer) (int, error) {
	bcFile, err := file.Open(ctx, barcodeReadFile)
	if err != nil {
		return 0, errors.E(err, "rewriter: opening", barcodeReadFile)
	}
	defer bcFile.Close(ctx) // nolint:errcheck
	bioFile, err := file.Open(ctx, bioReadFile)
	if err != nil {
		return 0, errors.E(err, "rewriter: opening", bioReadFile)
	}
	defer bioFile.Close(ctx) // nolint:errcheck

	pr := &pairReader{bc: newRecordReader(bcFile.Reader(ctx)), bio: newRecordReader(bioFile.Reader(ctx))}
	rng := rand.New(rand.NewSource(0))

	var bcRead, bioRead fastqRecord
	written, seen := 0, 0
	for pr.scan(&bcRead, &bioRead) {
		seen++
		if seen%progressInterval == 0 {
			log.Printf("rewriter: processed %d read pairs, %d written", seen, written)
		}
		corrected, umi, ok := resolve(bcRead.seq, p, trueBarcodes, sm, rng)
		if !ok {
			continue
		}
		rewritten := bioRead
		rewritten.id = fmt.Sprintf("@%s_%s_%s", trimAt(bioRead.id), corrected, umi)
		if err := writeRecord(out, &rewritten); err != nil {
			return written, errors.E(err, "rewriter: writing output")
		}
		written++
	}
	if err := pr.err(); err != nil {
		// pkg/errors reads more naturally than base/errors.E for a single
		// bare wrap with no extra context fields.
		return written, pkgerrors.Wrap(err, "rewriter: reading fastq pair")
	}
	return written, nil
}

// resolve extracts a barcode/UMI pair from seq and corrects the barcode
// against trueBarcodes/sm, returning ok=false if the read is too short,
// contains an invalid barcode, or cannot be resolved to any true
// barcode.
func resolve(seq string, p barcode.Protocol, trueBarcodes map[string]struct{}, sm softmap.SoftMap, rng *rand.Rand) (corrected, umi string, ok bool) {
	need := p.BarcodeLength + p.UMILength
	if len(seq) < need {
		return "", "", false
	}

	if p.End == barcode.ThreePrime {
		// bug: a reversed copy of seq is computed here but never used --
		// barcode and UMI are still sliced from the front of the original,
		// non-reversed seq below, exactly as in the C++ writeFastq this is
		// ported from. Preserved rather than fixed.
		_ = reverseString(seq)
	}
	bc := seq[:p.BarcodeLength]
	umi = seq[p.BarcodeLength:need]

	if _, isTrue := trueBarcodes[bc]; isTrue {
		return bc, umi, true
	}

	candidates, inSoftMap := sm[bc]
	if !inSoftMap || len(candidates) == 0 {
		return "", "", false
	}
	if len(candidates) == 1 {
		return candidates[0].TrueBarcode, umi, true
	}
	r := rng.Float64()
	for _, c := range candidates {
		if c.Probability > r {
			return c.TrueBarcode, umi, true
		}
	}
	return "", "", false
}

func reverseString(s string) string {
	r := []byte(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// trimAt strips a leading "@" from a FASTQ ID line; the rewritten ID is
// built from the bare read name.
func trimAt(id string) string {
	if len(id) > 0 && id[0] == '@' {
		return id[1:]
	}
	return id
}
