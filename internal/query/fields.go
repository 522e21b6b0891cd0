// Package query implements the token compiler, match tree, field
// extractors, and string-matching algorithms the CLI front ends use to
// search a tree.PackageTree (spec §4.H/§4.I).
package query

import (
	"strings"

	"github.com/eix-go/eix/internal/dbformat"
	"github.com/eix-go/eix/internal/tree"
)

// Field selects which string(s) of a package/version a PackageTest's
// algorithm is matched against (spec §4.H/§4.I).
type Field int

const (
	FieldName Field = iota
	FieldCategory
	FieldCategoryName
	FieldDescription
	FieldHomepage
	FieldLicense
	FieldProvide
	FieldIUse
	FieldDepend
	FieldRDepend
	FieldPDepend
	FieldDeps // union of DEPEND/RDEPEND/PDEPEND
	FieldSet
	FieldSlot
	FieldAny // name/category/description/homepage/license
)

// NeededStage reports the minimum PackageReader fetch stage a field
// extractor requires.
func (f Field) NeededStage() dbformat.FetchStage {
	switch f {
	case FieldName, FieldCategory, FieldCategoryName:
		return dbformat.FetchName
	case FieldSlot, FieldDepend, FieldRDepend, FieldPDepend, FieldDeps:
		return dbformat.FetchVersions
	default:
		return dbformat.FetchAll
	}
}

// PackageStrings extracts every candidate string for f from pkg, ignoring
// any per-version fields (SLOT, DEPEND/RDEPEND/PDEPEND/DEPS): those are
// extracted per-version via VersionStrings instead.
func (f Field) PackageStrings(pkg *tree.Package) []string {
	switch f {
	case FieldName:
		return []string{pkg.Name}
	case FieldCategory:
		return []string{pkg.Category}
	case FieldCategoryName:
		return []string{pkg.Category + "/" + pkg.Name}
	case FieldDescription:
		return []string{pkg.Description}
	case FieldHomepage:
		return []string{pkg.Homepage}
	case FieldLicense:
		return []string{pkg.Licenses}
	case FieldProvide:
		return []string{pkg.Provide}
	case FieldIUse:
		out := make([]string, 0, len(pkg.CollIuse))
		for flag := range pkg.CollIuse {
			out = append(out, flag)
		}
		return out
	case FieldSet:
		return nil // set membership is supplied externally; see SetMembership
	case FieldAny:
		return []string{pkg.Name, pkg.Category, pkg.Description, pkg.Homepage, pkg.Licenses}
	default:
		return nil
	}
}

// IsPerVersion reports whether f must be matched against each version
// individually rather than once per package.
func (f Field) IsPerVersion() bool {
	switch f {
	case FieldSlot, FieldDepend, FieldRDepend, FieldPDepend, FieldDeps:
		return true
	default:
		return false
	}
}

// VersionStrings extracts f's candidate strings from a single version.
func (f Field) VersionStrings(v *tree.ExtendedVersion) []string {
	switch f {
	case FieldSlot:
		return []string{v.Slot}
	case FieldDepend:
		return []string{v.Depend}
	case FieldRDepend:
		return []string{v.RDepend}
	case FieldPDepend:
		return []string{v.PDepend}
	case FieldDeps:
		return []string{v.Depend, v.RDepend, v.PDepend}
	default:
		return nil
	}
}

// anyMatch reports whether alg matches any of strs.
func anyMatch(alg Algorithm, strs []string) bool {
	for _, s := range strs {
		if s == "" {
			continue
		}
		if alg.Match(s) {
			return true
		}
	}
	return false
}

// normalize is applied before algorithms compare strings when case folding
// is requested (the "i" vs "I" installed-only/ignore-case CLI options
// share a letter in portage tooling; query only needs the fold helper).
func normalize(s string, foldCase bool) string {
	if foldCase {
		return strings.ToLower(s)
	}
	return s
}
