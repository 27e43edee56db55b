//go:build !unix

package source

import (
	"os"

	"github.com/example/brc/internal/fault"
)

// Open reads path fully into memory on platforms without mmap support.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.IO("read", path, err)
	}
	return &File{Path: path, Data: data}, nil
}
