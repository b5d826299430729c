//go:build unix

package mmfile

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// mapFile maps the first size bytes of f read-only. The mapping stays valid
// after f is closed, until release is called. release is idempotent.
func mapFile(f *os.File, size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}
	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() { err = unix.Munmap(data) })
		return err
	}
	return data, release, nil
}
