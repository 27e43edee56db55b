//go:build unix

package source

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/example/brc/internal/fault"
)

// Open maps path read-only into memory. A zero-length file yields an empty
// File without a mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.IO("open", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fault.IO("stat", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fault.IO("map", path, unix.EINVAL)
	}

	size := fi.Size()
	if size == 0 {
		return &File{Path: path}, nil
	}
	if int64(int(size)) != size {
		return nil, fault.IO("map", path, unix.EFBIG)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fault.IO("mmap", path, err)
	}

	// Best-effort hint for the single forward pass.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &File{
		Path: path,
		Data: data,
		release: func() error {
			if err := unix.Munmap(data); err != nil {
				return fault.IO("munmap", path, err)
			}
			return nil
		},
	}, nil
}
