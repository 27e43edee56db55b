// Package source exposes an input file as one read-only byte slice shared
// by every worker.
package source

// File is an opened input. Data must not be written to and is invalid after
// Close.
type File struct {
	Path string
	Data []byte

	release func() error
}

// Len is the number of input bytes.
func (f *File) Len() int { return len(f.Data) }

// Close releases the mapping. It is safe to call more than once.
func (f *File) Close() error {
	if f == nil || f.release == nil {
		return nil
	}
	rel := f.release
	f.release = nil
	f.Data = nil
	return rel()
}

// FromBytes wraps an in-memory buffer, mostly for tests and small inputs.
func FromBytes(name string, data []byte) *File {
	return &File{Path: name, Data: data}
}
