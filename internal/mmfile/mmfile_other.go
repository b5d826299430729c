//go:build !unix

package mmfile

import (
	"io"
	"os"
)

// mapFile reads the first size bytes of f into memory; there is no mapping to
// release.
func mapFile(f *os.File, size int) ([]byte, func() error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, noRelease, nil
}
