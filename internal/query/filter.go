package query

import (
	"github.com/eix-go/eix/internal/mask"
	"github.com/eix-go/eix/internal/tree"
)

// Filter narrows which versions of a package a leaf considers a match
// target (the "I"/"O"/"T" option tokens of spec §4.H). A zero Filter
// matches every version.
type Filter struct {
	InstalledOnly bool // I: keep only versions flagged mask.World (merged)
	OverlayOnly   bool // O: keep only versions with OverlayKey != 0
	ObsoleteOnly  bool // T: keep only versions flagged Redundant != 0
}

// Accepts reports whether v survives f.
func (f Filter) Accepts(v *tree.ExtendedVersion) bool {
	if f.InstalledOnly && !v.MaskFlags.Has(mask.World) {
		return false
	}
	if f.OverlayOnly && v.OverlayKey == 0 {
		return false
	}
	if f.ObsoleteOnly && v.Redundant == 0 {
		return false
	}
	return true
}

// AnyVersion reports whether any of pkg's versions survive f.
func (f Filter) AnyVersion(pkg *tree.Package) bool {
	for _, v := range pkg.Versions {
		if f.Accepts(v) {
			return true
		}
	}
	return false
}
