// Package bcio implements the optional dump artifacts of a run:
// frequency.txt, barcodeSoftMaps.txt, umitoolsMap.txt, and cmd_info.json,
// plus the whitelist-file reader.
package bcio

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// DumpFrequency writes a frequency.txt-format file at path: one "barcode\tcount" line per
// barcode in sortedIdx order, descending by count, stopping at the first
// zero count or after n entries (whichever comes first).
func DumpFrequency(ctx context.Context, path string, keys []string, counts []uint32, sortedIdx []int, n int) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "bcio: creating", path)
	}
	cw := wrapWriter(out.Writer(ctx), path)
	w := bufio.NewWriter(cw)
	remaining := n
	for _, i := range sortedIdx {
		if remaining == 0 || counts[i] == 0 {
			break
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\n", keys[i], counts[i]); err != nil {
			return errors.E(err, "bcio: writing", path)
		}
		remaining--
	}
	if err := w.Flush(); err != nil {
		return errors.E(err, "bcio: flushing", path)
	}
	if err := cw.Close(); err != nil {
		return errors.E(err, "bcio: closing compressor for", path)
	}
	return out.Close(ctx)
}

// ReadWhitelist reads a whitelist file (one barcode per line) and
// returns the set of barcodes it names.
func ReadWhitelist(ctx context.Context, path string) (map[string]struct{}, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "bcio: opening whitelist", path)
	}
	defer in.Close(ctx) // nolint:errcheck

	set := map[string]struct{}{}
	scanner := bufio.NewScanner(in.Reader(ctx))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "bcio: reading whitelist", path)
	}
	return set, nil
}

// ReadFrequencyFile parses a frequency.txt-formatted file back into
// (barcode, count) pairs.
func ReadFrequencyFile(ctx context.Context, path string) (map[string]uint32, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "bcio: opening", path)
	}
	defer in.Close(ctx) // nolint:errcheck

	result := map[string]uint32{}
	scanner := bufio.NewScanner(in.Reader(ctx))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, errors.E("bcio: malformed frequency line", line)
		}
		count, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, errors.E(err, "bcio: malformed frequency count", line)
		}
		result[parts[0]] = uint32(count)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "bcio: reading", path)
	}
	return result, nil
}
