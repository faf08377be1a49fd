package barcode

import "github.com/grailbio/base/unsafe"

// Extract pulls the barcode and UMI substrings out of seq according to
// protocol. It returns ok=false if seq is too short for the protocol, or
// if the barcode substring contains any character outside {A,C,G,T}.
//
// If protocol.End is ThreePrime, seq is character-reversed (not
// reverse-complemented -- a deliberately preserved quirk) before
// slicing.
//
// Extract is pure and stateless; it is safe to call from any number of
// goroutines concurrently.
func Extract(seq string, protocol Protocol) (bc, umi string, ok bool) {
	need := protocol.BarcodeLength + protocol.UMILength
	if len(seq) < need {
		return "", "", false
	}

	if protocol.End == ThreePrime {
		seq = reverseString(seq)
	}

	bc = seq[:protocol.BarcodeLength]
	if !isCleanBarcode(bc) {
		return "", "", false
	}
	umi = seq[protocol.BarcodeLength:need]
	return bc, umi, true
}

func isCleanBarcode(bc string) bool {
	b := unsafe.StringToBytes(bc)
	for _, c := range b {
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

func reverseString(s string) string {
	r := []byte(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
