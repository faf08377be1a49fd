package bcio

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/scbarcode/softmap"
)

// DumpBarcodeSoftMaps writes a barcodeSoftMaps.txt-format file at path: one line per
// observed barcode with a nonempty candidate list, formatted
// "observed\tk\ttrue_1\tp_1\t...\ttrue_k\tp_k". Observed barcodes are
// written in sorted order so the file is reproducible across runs
// despite sm being a Go map.
func DumpBarcodeSoftMaps(ctx context.Context, path string, sm softmap.SoftMap) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "bcio: creating", path)
	}
	cw := wrapWriter(out.Writer(ctx), path)
	w := bufio.NewWriter(cw)

	observed := make([]string, 0, len(sm))
	for o := range sm {
		observed = append(observed, o)
	}
	sort.Strings(observed)

	for _, o := range observed {
		candidates := sm[o]
		if len(candidates) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%d", o, len(candidates)); err != nil {
			return errors.E(err, "bcio: writing", path)
		}
		for _, c := range candidates {
			if _, err := fmt.Fprintf(w, "\t%s\t%s", c.TrueBarcode, strconv.FormatFloat(c.Probability, 'g', -1, 64)); err != nil {
				return errors.E(err, "bcio: writing", path)
			}
		}
		if _, err := w.WriteString("\n"); err != nil {
			return errors.E(err, "bcio: writing", path)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.E(err, "bcio: flushing", path)
	}
	if err := cw.Close(); err != nil {
		return errors.E(err, "bcio: closing compressor for", path)
	}
	return out.Close(ctx)
}

// DumpUmitoolsMap writes a umitoolsMap.txt-format file at path: the inverted soft map,
// one line per true barcode, listing the observed barcodes resolved to
// it as a comma-separated list.
//
// Resolution for an observed barcode with multiple candidates deliberately
// uses a "hard resolution" sampler that is not a valid draw from the
// candidate distribution: it draws a single uniform random number and
// accepts the first candidate whose probability exceeds it, rather than
// comparing against a running cumulative sum. No candidate is chosen when
// every probability is at or below the draw, and the probabilities are
// not required to sum to 1. This is preserved rather than replaced with
// a correct categorical sampler.
func DumpUmitoolsMap(ctx context.Context, path string, sm softmap.SoftMap, rng *rand.Rand) error {
	inverted := map[string][]string{}
	observed := make([]string, 0, len(sm))
	for o := range sm {
		observed = append(observed, o)
	}
	sort.Strings(observed)

	for _, o := range observed {
		candidates := sm[o]
		chosen := ""
		switch {
		case len(candidates) == 0:
			continue
		case len(candidates) == 1:
			// A single candidate is taken directly, with no random draw --
			// the sampler below only runs when there is more than one.
			chosen = candidates[0].TrueBarcode
		default:
			r := rng.Float64()
			for _, c := range candidates {
				if c.Probability > r {
					chosen = c.TrueBarcode
					break
				}
			}
		}
		if chosen == "" {
			continue
		}
		inverted[chosen] = append(inverted[chosen], o)
	}

	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "bcio: creating", path)
	}
	cw := wrapWriter(out.Writer(ctx), path)
	w := bufio.NewWriter(cw)

	trueBarcodes := make([]string, 0, len(inverted))
	for tb := range inverted {
		trueBarcodes = append(trueBarcodes, tb)
	}
	sort.Strings(trueBarcodes)

	for _, tb := range trueBarcodes {
		members := inverted[tb]
		sort.Strings(members)
		if _, err := fmt.Fprintf(w, "%s\t", tb); err != nil {
			return errors.E(err, "bcio: writing", path)
		}
		for i, m := range members {
			if i > 0 {
				if _, err := w.WriteString(","); err != nil {
					return errors.E(err, "bcio: writing", path)
				}
			}
			if _, err := w.WriteString(m); err != nil {
				return errors.E(err, "bcio: writing", path)
			}
		}
		if _, err := w.WriteString("\n"); err != nil {
			return errors.E(err, "bcio: writing", path)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.E(err, "bcio: flushing", path)
	}
	if err := cw.Close(); err != nil {
		return errors.E(err, "bcio: closing compressor for", path)
	}
	return out.Close(ctx)
}
