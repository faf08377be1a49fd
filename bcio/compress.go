package bcio

import (
	"io"
	"strings"

	"github.com/golang/snappy"
)

// compressedSuffix triggers transparent Snappy compression of a dump
// file when its path ends with this suffix. It gives the module's
// top-level dependency on github.com/golang/snappy a concrete home:
// large, repetitive text artifacts worth compressing.
const compressedSuffix = ".sz"

// wrapWriter returns w unchanged unless path ends in compressedSuffix, in
// which case it wraps w in a Snappy writer. Callers must always call
// Close on the returned writer before closing the underlying file.
func wrapWriter(w io.Writer, path string) io.WriteCloser {
	if strings.HasSuffix(path, compressedSuffix) {
		return snappy.NewBufferedWriter(w)
	}
	return nopWriteCloser{w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
