package domain

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// fingerprinter accumulates NUL separated fields into an xxhash64 digest.
type fingerprinter struct {
	h *xxhash.Digest
}

func newFingerprinter() *fingerprinter {
	return &fingerprinter{h: xxhash.New()}
}

func (f *fingerprinter) field(values ...string) {
	for _, v := range values {
		_, _ = f.h.WriteString(v)
		_, _ = f.h.Write([]byte{0})
	}
}

// section marks the start of a list so adjacent lists of different lengths cannot collide.
func (f *fingerprinter) section(name string, n int) {
	f.field(name, fmt.Sprint(n))
}

func (f *fingerprinter) sum() string {
	return fmt.Sprintf("%016x", f.h.Sum64())
}
