// Package procmaps looks up the memory mappings of a process.
package procmaps

import (
	"golang.org/x/exp/slices"
)

// Mapping is one line of /proc/<pid>/maps.
type Mapping struct {
	Start    uint64
	End      uint64
	Perms    string
	Offset   int64
	Pathname string
}

// Table holds the mappings of a process sorted by start address.
type Table struct {
	mappings []Mapping
}

func NewTable(mappings []Mapping) *Table {
	sorted := slices.Clone(mappings)
	slices.SortFunc(sorted, func(a, b Mapping) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	return &Table{mappings: sorted}
}

// Find returns the mapping containing addr.
func (t *Table) Find(addr uint64) (Mapping, bool) {
	i, found := slices.BinarySearchFunc(t.mappings, addr, binarySearchMapping)
	if !found {
		return Mapping{}, false
	}
	return t.mappings[i], true
}

func (t *Table) Len() int {
	return len(t.mappings)
}

func binarySearchMapping(m Mapping, addr uint64) int {
	if addr < m.Start {
		return 1
	}
	if addr >= m.End {
		return -1
	}
	return 0
}
