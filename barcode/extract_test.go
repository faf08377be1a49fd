package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFivePrime(t *testing.T) {
	p := Protocol{Name: "test", BarcodeLength: 16, UMILength: 10, End: FivePrime}
	seq := "ACGTACGTACGTACGT" + "TTTTTTTTTT" + "EXTRA"
	bc, umi, ok := Extract(seq, p)
	assert.True(t, ok)
	assert.Equal(t, "ACGTACGTACGTACGT", bc)
	assert.Equal(t, "TTTTTTTTTT", umi)
}

func TestExtractThreePrime(t *testing.T) {
	// Reversal happens over the whole sequence, not just the barcode+UMI
	// window, so the clean barcode characters end up at the front.
	p := Protocol{Name: "test", BarcodeLength: 4, UMILength: 0, End: ThreePrime}
	bc, _, ok := Extract("NNNNACGT", p)
	assert.True(t, ok)
	assert.Equal(t, "TGCA", bc)
}

func TestExtractTooShort(t *testing.T) {
	p := Protocol{Name: "test", BarcodeLength: 16, UMILength: 10, End: FivePrime}
	_, _, ok := Extract("ACGT", p)
	assert.False(t, ok)
}

func TestExtractRejectsN(t *testing.T) {
	p := Protocol{Name: "test", BarcodeLength: 8, UMILength: 0, End: FivePrime}
	_, _, ok := Extract("ACGTNCGT", p)
	assert.False(t, ok)
}

func TestExtractRejectsLowercaseOrOther(t *testing.T) {
	p := Protocol{Name: "test", BarcodeLength: 8, UMILength: 0, End: FivePrime}
	_, _, ok := Extract("ACGTXCGT", p)
	assert.False(t, ok)
}
