// Package tree holds the in-memory representation of indexed packages:
// PackageTree -> Category -> Package -> ExtendedVersion, as ingested from
// any cache reader and annotated in place by the policy layer.
package tree

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/eix-go/eix/internal/mask"
	"github.com/eix-go/eix/internal/version"
)

// RestrictFlags is a bit-set over RESTRICT_* ebuild metadata tokens.
type RestrictFlags uint16

const (
	RestrictFetch RestrictFlags = 1 << iota
	RestrictMirror
	RestrictPrimaryURI
	RestrictBinchecks
	RestrictStrip
	RestrictTest
	RestrictUserpriv
	RestrictInstallSources
	RestrictBindist
	RestrictParallel
)

// PropertiesFlags is a bit-set over PROPERTIES_* ebuild metadata tokens.
type PropertiesFlags uint8

const (
	PropertiesInteractive PropertiesFlags = 1 << iota
	PropertiesLive
	PropertiesVirtual
	PropertiesSet
)

// ExtendedVersion is a Version plus everything a cache reader attaches to
// one ebuild entry, plus the memoized "saved slot" annotations the policy
// layer and evaluator compute at most once per query (spec §9).
type ExtendedVersion struct {
	*version.Version

	Slot            string
	FullKeywords    string // the raw, space-separated KEYWORDS string (K, spec §4.G)
	IUse            string
	RestrictFlags   RestrictFlags
	PropertiesFlags PropertiesFlags

	// AcceptKeywordTokens is U (spec §4.G): per-package accept-keyword
	// overrides gathered from the cascading profile's package.keywords/
	// package.accept_keywords and from /etc/portage's, kept distinct from
	// K (FullKeywords) since U is what the user additionally accepted, not
	// part of what the ebuild itself declares.
	AcceptKeywordTokens []string

	// OverlayKey indexes the overlay vector (0 == primary repository).
	OverlayKey int

	Depend, RDepend, PDepend string

	// MaskFlags/KeywordFlags/Redundant are the *current* (live) annotation,
	// mutated by apply_masks/apply_keywords and the redundancy checks.
	MaskFlags    mask.MaskFlags
	KeywordFlags mask.KeywordsFlags
	Redundant    mask.Redundant

	// Saved slots memoize a classification so repeated queries in one run
	// can restore rather than recompute it (spec §4.G, §9).
	SavedKeyflags  [mask.NumKeywordSlots]*mask.KeywordsFlags
	SavedMaskflags [mask.NumMaskSlots]*mask.MaskFlags
}

// SaveKeyflags memoizes f at slot.
func (v *ExtendedVersion) SaveKeyflags(slot mask.SavedKeywordSlot, f mask.KeywordsFlags) {
	cp := f
	v.SavedKeyflags[slot] = &cp
}

// RestoreKeyflags returns a previously memoized value, if any.
func (v *ExtendedVersion) RestoreKeyflags(slot mask.SavedKeywordSlot) (mask.KeywordsFlags, bool) {
	p := v.SavedKeyflags[slot]
	if p == nil {
		return 0, false
	}
	return *p, true
}

// SaveMaskflags memoizes f at slot.
func (v *ExtendedVersion) SaveMaskflags(slot mask.SavedMaskSlot, f mask.MaskFlags) {
	cp := f
	v.SavedMaskflags[slot] = &cp
}

// RestoreMaskflags returns a previously memoized value, if any.
func (v *ExtendedVersion) RestoreMaskflags(slot mask.SavedMaskSlot) (mask.MaskFlags, bool) {
	p := v.SavedMaskflags[slot]
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Package is identified by (category, name) and owns its versions in
// insertion order. One-time fields are copied from whichever version is
// latest at the time a version is added.
type Package struct {
	Category string
	Name     string

	Versions []*ExtendedVersion

	Homepage    string
	Licenses    string
	Description string
	Provide     string

	// CollIuse is the union of collapsed USE flags across all versions,
	// accumulated as versions are added.
	CollIuse map[string]struct{}
}

// NewPackage returns an empty package.
func NewPackage(category, name string) *Package {
	return &Package{Category: category, Name: name, CollIuse: make(map[string]struct{})}
}

// OneTimeFields is the metadata a cache reader copies from a package's
// latest version once that version is known.
type OneTimeFields struct {
	Homepage    string
	Licenses    string
	Description string
	Provide     string
}

// AddVersion appends ev to the package, accumulates its IUSE into
// CollIuse, and copies one-time fields from it if it is now the latest
// version by full Compare.
func (p *Package) AddVersion(ev *ExtendedVersion, oneTime OneTimeFields) {
	p.Versions = append(p.Versions, ev)
	for _, flag := range splitIUse(ev.IUse) {
		p.CollIuse[flag] = struct{}{}
	}
	if latest := p.Latest(); latest == ev {
		p.Homepage = oneTime.Homepage
		p.Licenses = oneTime.Licenses
		p.Description = oneTime.Description
		p.Provide = oneTime.Provide
	}
}

func splitIUse(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' && s[i] != '\t' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flag := s[start:i]
			// collapse leading +/- use-default markers
			for len(flag) > 0 && (flag[0] == '+' || flag[0] == '-') {
				flag = flag[1:]
			}
			if flag != "" {
				out = append(out, flag)
			}
			start = -1
		}
	}
	return out
}

// Latest returns the version that compares greatest by full Compare, or nil
// if the package has no versions.
func (p *Package) Latest() *ExtendedVersion {
	var latest *ExtendedVersion
	for _, v := range p.Versions {
		if latest == nil || version.Compare(v.Version, latest.Version) > 0 {
			latest = v
		}
	}
	return latest
}

// RemoveVersion deletes the version at index i, preserving order of the
// rest.
func (p *Package) RemoveVersion(i int) {
	p.Versions = append(p.Versions[:i], p.Versions[i+1:]...)
}

// Category holds the packages discovered under one category name.
type Category struct {
	Name     string
	packages *linkedhashmap.Map // name -> *Package, insertion order preserved
}

// NewCategory returns an empty category.
func NewCategory(name string) *Category {
	return &Category{Name: name, packages: linkedhashmap.New()}
}

// Package returns the named package, creating it if absent.
func (c *Category) Package(name string) *Package {
	if v, ok := c.packages.Get(name); ok {
		return v.(*Package)
	}
	p := NewPackage(c.Name, name)
	c.packages.Put(name, p)
	return p
}

// Lookup returns the named package without creating it.
func (c *Category) Lookup(name string) (*Package, bool) {
	v, ok := c.packages.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Package), true
}

// Delete removes the named package entirely.
func (c *Category) Delete(name string) { c.packages.Remove(name) }

// Each calls fn for every package, in insertion order, stopping at the
// first error.
func (c *Category) Each(fn func(*Package) error) error {
	it := c.packages.Iterator()
	for it.Next() {
		if err := fn(it.Value().(*Package)); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of packages in the category.
func (c *Category) Len() int { return c.packages.Size() }

// PackageTree is the root mapping from category name to Category.
type PackageTree struct {
	categories *linkedhashmap.Map // name -> *Category

	fastAccess       bool
	fastAccessFilter map[string]bool
}

// New returns an empty PackageTree.
func New() *PackageTree {
	return &PackageTree{categories: linkedhashmap.New()}
}

// NeedFastAccess restricts the tree to the given categories (nil/empty
// means no restriction) for the duration of an ingest pass, so an
// ingestor can skip entire categories it doesn't need to read. Call
// FinishFastAccess to lift the restriction.
func (t *PackageTree) NeedFastAccess(categories []string) {
	t.fastAccess = true
	if len(categories) == 0 {
		t.fastAccessFilter = nil
		return
	}
	t.fastAccessFilter = make(map[string]bool, len(categories))
	for _, c := range categories {
		t.fastAccessFilter[c] = true
	}
}

// FinishFastAccess lifts any restriction installed by NeedFastAccess.
func (t *PackageTree) FinishFastAccess() {
	t.fastAccess = false
	t.fastAccessFilter = nil
}

// Allowed reports whether category passes the current fast-access filter.
func (t *PackageTree) Allowed(category string) bool {
	if !t.fastAccess || t.fastAccessFilter == nil {
		return true
	}
	return t.fastAccessFilter[category]
}

// Category returns the named category, creating it (subject to the current
// fast-access filter) if absent. It returns nil if the category is
// filtered out and did not already exist.
func (t *PackageTree) Category(name string) *Category {
	if v, ok := t.categories.Get(name); ok {
		return v.(*Category)
	}
	if !t.Allowed(name) {
		return nil
	}
	c := NewCategory(name)
	t.categories.Put(name, c)
	return c
}

// Lookup returns the named category without creating it.
func (t *PackageTree) Lookup(name string) (*Category, bool) {
	v, ok := t.categories.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Category), true
}

// Each calls fn for every category, in insertion order, stopping at the
// first error.
func (t *PackageTree) Each(fn func(*Category) error) error {
	it := t.categories.Iterator()
	for it.Next() {
		if err := fn(it.Value().(*Category)); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of categories in the tree.
func (t *PackageTree) Len() int { return t.categories.Size() }
