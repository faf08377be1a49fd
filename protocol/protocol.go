// Package protocol supplies the standard single-cell protocol
// descriptors consumed opaquely by package barcode. It replaces
// per-protocol C++ compile-time templates with plain data.
package protocol

import (
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/scbarcode/barcode"
)

// DropSeq returns the Drop-seq protocol descriptor: 12bp barcode, 8bp UMI,
// read from the 5' end.
func DropSeq() barcode.Protocol {
	return barcode.Protocol{
		Name:          "DropSeq",
		BarcodeLength: 12,
		UMILength:     8,
		End:           barcode.FivePrime,
	}
}

// Chromium returns the 10x Genomics Chromium (v2) protocol descriptor:
// 16bp barcode, 10bp UMI, read from the 5' end.
func Chromium() barcode.Protocol {
	return barcode.Protocol{
		Name:          "Chromium",
		BarcodeLength: 16,
		UMILength:     10,
		End:           barcode.FivePrime,
	}
}

// Gemcode returns the 10x Genomics GemCode (v1) protocol descriptor: 14bp
// barcode, 10bp UMI, read from the 5' end.
func Gemcode() barcode.Protocol {
	return barcode.Protocol{
		Name:          "Gemcode",
		BarcodeLength: 14,
		UMILength:     10,
		End:           barcode.FivePrime,
	}
}

// InDrop returns the inDrop protocol descriptor. w1 is the known linker
// sequence between the two variable-length barcode halves; it is stored on
// the descriptor's Name for diagnostic purposes but is otherwise opaque to
// package barcode, which only reads BarcodeLength/UMILength/End.
func InDrop(w1 string) barcode.Protocol {
	return barcode.Protocol{
		Name:          "InDrop:" + w1,
		BarcodeLength: 11,
		UMILength:     6,
		End:           barcode.FivePrime,
	}
}

// Custom returns a user-specified protocol descriptor.
func Custom(barcodeLength, umiLength int, end barcode.End) barcode.Protocol {
	return barcode.Protocol{
		Name:          "Custom",
		BarcodeLength: barcodeLength,
		UMILength:     umiLength,
		End:           end,
	}
}

// Lookup resolves a -protocol flag value into a descriptor. Recognized
// forms are "dropseq", "chromium", "gemcode", "indrop:<w1>", and
// "custom:<barcodeLength>,<umiLength>,<5p|3p>"; matching is
// case-insensitive.
func Lookup(name string) (barcode.Protocol, error) {
	lower := strings.ToLower(name)
	switch {
	case lower == "dropseq":
		return DropSeq(), nil
	case lower == "chromium":
		return Chromium(), nil
	case lower == "gemcode":
		return Gemcode(), nil
	case strings.HasPrefix(lower, "indrop:"):
		return InDrop(name[len("indrop:"):]), nil
	case strings.HasPrefix(lower, "custom:"):
		fields := strings.Split(name[len("custom:"):], ",")
		if len(fields) != 3 {
			return barcode.Protocol{}, errors.E("protocol: custom spec wants barcodeLength,umiLength,end, got", name)
		}
		bl, err := strconv.Atoi(fields[0])
		if err != nil {
			return barcode.Protocol{}, errors.E(err, "protocol: custom barcode length", fields[0])
		}
		ul, err := strconv.Atoi(fields[1])
		if err != nil {
			return barcode.Protocol{}, errors.E(err, "protocol: custom umi length", fields[1])
		}
		var end barcode.End
		switch strings.ToLower(fields[2]) {
		case "5p":
			end = barcode.FivePrime
		case "3p":
			end = barcode.ThreePrime
		default:
			return barcode.Protocol{}, errors.E("protocol: custom end must be 5p or 3p, got", fields[2])
		}
		return Custom(bl, ul, end), nil
	default:
		return barcode.Protocol{}, errors.E("protocol: unrecognized protocol", name)
	}
}
