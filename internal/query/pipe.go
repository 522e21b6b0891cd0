package query

import (
	"bufio"
	"io"
	"strings"
)

// PipeMode distinguishes the two pipe-input variants the original CLI
// recognizes (src/various/cli.cc): plain category/name marking vs. lines
// that additionally carry (and therefore pin) an exact version.
type PipeMode int

const (
	PipeMarkInstalled PipeMode = iota // category/name only
	PipeMarkVersions                 // category/name-version
)

// MarkedEntry is one "category/name[-version]" line accepted from a pipe
// (spec §4.H pipe mode, §8 scenario 5).
type MarkedEntry struct {
	Category string
	Name     string
	Version  string // empty if the line carried no version
	Mode     PipeMode
}

// ReadPipe tokenizes r line by line, keeping whitespace-separated words
// that parse as "category/name" (optionally "=category/name-version"),
// and returns the set of accepted entries plus a Node matching any of
// their category/name pairs by exact CategoryName comparison (the
// synthetic set_pipetest of spec §4.H).
func ReadPipe(r io.Reader) (entries []MarkedEntry, node Node, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		for _, word := range strings.Fields(sc.Text()) {
			cat, name, ver, ok := isCategoryNameWord(word)
			if !ok {
				continue
			}
			mode := PipeMarkInstalled
			if ver != "" {
				mode = PipeMarkVersions
			}
			entries = append(entries, MarkedEntry{Category: cat, Name: name, Version: ver, Mode: mode})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return entries, nil, nil
	}

	var tree Node
	for _, e := range entries {
		leaf := Leaf{Test: &PackageTest{
			Field:     FieldCategoryName,
			Algorithm: NewExact(e.Category + "/" + e.Name),
		}}
		if tree == nil {
			tree = leaf
		} else {
			tree = Or{Left: tree, Right: leaf}
		}
	}
	return entries, tree, nil
}

// MarkedList maps "category/name" to the requested version, if any,
// mirroring the original's marked_list (spec §4.H pipe mode).
type MarkedList map[string]string

// NewMarkedList builds a MarkedList from entries.
func NewMarkedList(entries []MarkedEntry) MarkedList {
	m := make(MarkedList, len(entries))
	for _, e := range entries {
		m[e.Category+"/"+e.Name] = e.Version
	}
	return m
}

// Lookup reports whether category/name was marked and its requested
// version (empty if the pipe line carried no version).
func (m MarkedList) Lookup(category, name string) (version string, ok bool) {
	version, ok = m[category+"/"+name]
	return
}
