// Package cacheread ingests ebuild metadata from any of the on-disk cache
// layouts (flat, assign, md5 variants, and a prior self-produced binary
// cache) into a tree.PackageTree (spec §4.C).
package cacheread

import "github.com/eix-go/eix/internal/tree"

// Mode selects how an ingestor's Filter restricts the categories it adds
// to the destination tree.
type Mode int

const (
	// ModeAll reads every category found and adds newly discovered ones.
	ModeAll Mode = iota
	// ModeRestrict limits ingestion to a fixed set of category names.
	ModeRestrict
	// ModeSingle populates exactly one pre-existing category.
	ModeSingle
)

// Filter governs which categories an ingestor touches.
type Filter struct {
	Mode     Mode
	Allowed  map[string]bool // used by ModeRestrict
	Category string          // used by ModeSingle
}

// Allows reports whether category passes the filter.
func (f Filter) Allows(category string) bool {
	switch f.Mode {
	case ModeRestrict:
		return f.Allowed[category]
	case ModeSingle:
		return category == f.Category
	default:
		return true
	}
}

// Categories returns the category names to enumerate up front, or nil if
// the ingestor should discover them itself (ModeAll).
func (f Filter) Categories() []string {
	switch f.Mode {
	case ModeSingle:
		return []string{f.Category}
	case ModeRestrict:
		out := make([]string, 0, len(f.Allowed))
		for c := range f.Allowed {
			out = append(out, c)
		}
		return out
	default:
		return nil
	}
}

// Ingestor is the shared interface every cache reader implements (spec
// §4.C): read_categories(tree, filter) -> error.
type Ingestor interface {
	ReadCategories(t *tree.PackageTree, filter Filter) error
}
