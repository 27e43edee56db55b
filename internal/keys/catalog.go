package keys

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/example/brc/internal/fault"
	"github.com/example/brc/internal/source"
	"github.com/example/brc/internal/stats"
)

// Station is one catalog line: a key and its baseline value.
type Station struct {
	Name     string
	Baseline float64
}

// Catalog is the complete, ordered key universe read from an auxiliary file.
type Catalog struct {
	Stations []Station
}

// LoadCatalog reads a catalog file of "<key>;<baseline>" lines.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cat, err := ParseCatalog(f.Data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog parses catalog lines. Blank lines and lines starting with
// '#' are skipped; a final line may omit its newline. Names must be unique.
func ParseCatalog(data []byte) (*Catalog, error) {
	cat := &Catalog{}
	seen := make(map[string]struct{})

	for pos := 0; pos < len(data); {
		line := data[pos:]
		next := len(data)
		if nl := bytes.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
			next = pos + nl + 1
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})

		if len(line) > 0 && line[0] != '#' {
			name, baseline, found := bytes.Cut(line, []byte{';'})
			if !found {
				return nil, fault.At(pos, fault.ErrMissingSeparator)
			}
			if len(name) == 0 {
				return nil, fault.At(pos, fault.ErrEmptyKey)
			}
			b, err := strconv.ParseFloat(strings.TrimSpace(string(baseline)), 64)
			if err != nil {
				return nil, fault.At(pos, fmt.Errorf("%w: baseline %q", fault.ErrMalformedValue, baseline))
			}
			s := Station{Name: string(name), Baseline: b}
			if _, dup := seen[s.Name]; dup {
				return nil, fault.At(pos, fmt.Errorf("%q: %w", s.Name, fault.ErrDuplicateCatalogKey))
			}
			seen[s.Name] = struct{}{}
			cat.Stations = append(cat.Stations, s)
		}
		pos = next
	}
	return cat, nil
}

// UnknownPolicy decides what happens to records whose key is absent from
// the catalog.
type UnknownPolicy int

const (
	// DropUnknown skips such records.
	DropUnknown UnknownPolicy = iota
	// FailUnknown aborts the run with a format fault.
	FailUnknown
)

// ParseUnknownPolicy maps "drop" and "fail" to a policy.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch s {
	case "drop":
		return DropUnknown, nil
	case "fail":
		return FailUnknown, nil
	}
	return 0, fmt.Errorf("unknown key policy %q (use drop or fail)", s)
}

func (p UnknownPolicy) String() string {
	if p == FailUnknown {
		return "fail"
	}
	return "drop"
}

// Closed resolves keys against a KeyTable built once from a catalog.
// It never inserts keys at runtime.
type Closed struct {
	table  *swiss.Map[uint64, string]
	policy UnknownPolicy
}

// NewClosed hashes every catalog name into a KeyTable. Two names sharing a
// hash make the catalog unusable.
func NewClosed(cat *Catalog, policy UnknownPolicy) (*Closed, error) {
	table := swiss.NewMap[uint64, string](uint32(max(len(cat.Stations), 1)))
	for _, s := range cat.Stations {
		id := Hash([]byte(s.Name))
		if prev, ok := table.Get(id); ok {
			return nil, fmt.Errorf("catalog: %q and %q: %w", prev, s.Name, fault.ErrKeyCollision)
		}
		table.Put(id, s.Name)
	}
	return &Closed{table: table, policy: policy}, nil
}

// Len is the number of catalog keys.
func (c *Closed) Len() int { return c.table.Count() }

// Resolve implements Resolver.
func (c *Closed) Resolve(key []byte) (uint64, bool, error) {
	id := Hash(key)
	if name, ok := c.table.Get(id); ok && name == string(key) {
		return id, true, nil
	}
	if c.policy == FailUnknown {
		return 0, false, fmt.Errorf("%q: %w", key, fault.ErrUnknownKey)
	}
	return 0, false, nil
}

// NewTable implements Resolver. The table is pre-seeded with every catalog
// key so workers never insert.
func (c *Closed) NewTable() *stats.Table {
	t := stats.NewTable(c.table.Count())
	c.table.Iter(func(id uint64, name string) bool {
		t.Seed(id, name)
		return false
	})
	return t
}
