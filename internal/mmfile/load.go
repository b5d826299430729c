// Package mmfile loads database images into memory: plain files are
// memory-mapped, xz-compressed backups are decompressed into a heap buffer.
package mmfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ulikunitz/xz"
)

// xzMagic is the stream header magic of the xz container format.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

var errIsDir = errors.New("is a directory")

func noRelease() error { return nil }

// Image is a database image ready for decoding.
type Image struct {
	// Data is the decoded database. For plain files it is a read-only
	// mapping and must not be used after Close.
	Data []byte
	// Size is the size of the file on disk. It differs from len(Data) when
	// the file was compressed.
	Size int64
	// Compressed reports whether Data was decompressed from xz.
	Compressed bool

	release func() error
}

// Close releases the mapping behind Data. It is safe to call more than once.
func (im *Image) Close() error {
	if im.release == nil {
		return nil
	}
	return im.release()
}

// Open loads the database at path. Input starting with the xz magic is
// decompressed; anything else is mapped as is.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", path, errIsDir)
	}
	size := info.Size()
	if size > int64(math.MaxInt) {
		return nil, fmt.Errorf("open %s: file too large to map (%d bytes)", path, size)
	}

	im := &Image{Size: size, release: noRelease}
	if size == 0 {
		im.Data = []byte{}
		return im, nil
	}
	data, release, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if !bytes.HasPrefix(data, xzMagic) {
		im.Data, im.release = data, release
		return im, nil
	}
	defer release()

	plain, err := Decompress(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	im.Data, im.Compressed = plain, true
	return im, nil
}

// Decompress reads a whole xz stream into memory.
func Decompress(r io.Reader) ([]byte, error) {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	var out bytes.Buffer
	if _, err := io.Copy(&out, xzr); err != nil {
		return nil, fmt.Errorf("xz read: %w", err)
	}
	return out.Bytes(), nil
}
