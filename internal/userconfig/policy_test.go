package userconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eix-go/eix/internal/mask"
	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/version"
)

func mustVer(t *testing.T, s string) *version.Version {
	v, err := version.Parse(s, true)
	require.NoError(t, err)
	return v
}

func TestPolicyAnnotateStampsKeywordFlagsAndRedundancy(t *testing.T) {
	pkg := tree.NewPackage("dev-libs", "foo")
	v := &tree.ExtendedVersion{Version: mustVer(t, "1.0"), FullKeywords: "amd64 ~x86"}
	pkg.AddVersion(v, tree.OneTimeFields{})

	p := &Policy{
		ArchSet:      map[string]bool{"amd64": true},
		GlobalAccept: []string{"amd64"},
		Requested:    mask.RedInKeywords | mask.RedWeaker | mask.RedMixed,
	}
	p.Annotate(pkg)

	assert.True(t, v.KeywordFlags.Has(mask.Stable))
	assert.True(t, v.KeywordFlags.Has(mask.SomeStable))
	assert.True(t, v.KeywordFlags.Has(mask.TildeStarMatch))
	assert.True(t, v.Redundant.Has(mask.RedMixed))
}

func TestPolicyAnnotatePicksUpPerPackageAcceptKeywords(t *testing.T) {
	pkg := tree.NewPackage("dev-libs", "bar")
	v := &tree.ExtendedVersion{Version: mustVer(t, "2.0"), FullKeywords: "~amd64"}
	pkg.AddVersion(v, tree.OneTimeFields{})

	// No global accept for amd64 at all; only the per-package override
	// (spec §4.G's U, here coming from the cascading profile) accepts it.
	v.AcceptKeywordTokens = []string{"~amd64"}

	p := &Policy{
		ArchSet:      map[string]bool{"amd64": true},
		GlobalAccept: nil,
	}
	p.Annotate(pkg)

	assert.True(t, v.KeywordFlags.Has(mask.Stable))
	assert.Equal(t, mask.ArchUnstable, v.KeywordFlags&(mask.ArchUnstable|mask.AlienStable|mask.AlienUnstable))
}

func TestPolicyAnnotateMemoizesViaSavedSlot(t *testing.T) {
	pkg := tree.NewPackage("dev-libs", "baz")
	v := &tree.ExtendedVersion{Version: mustVer(t, "1.0"), FullKeywords: "amd64"}
	pkg.AddVersion(v, tree.OneTimeFields{})

	calls := 0
	p := &Policy{ArchSet: map[string]bool{"amd64": true}, GlobalAccept: []string{"amd64"}}
	p.Annotate(pkg)
	first := v.KeywordFlags
	calls++

	// Mutate FullKeywords after the first Annotate to prove the second call
	// is served from the saved slot rather than recomputed.
	v.FullKeywords = "x86"
	p.Annotate(pkg)
	assert.Equal(t, first, v.KeywordFlags)
	assert.Equal(t, 1, calls)
}

func TestPolicyUserAcceptTokensMergesProfileAndFileOverrides(t *testing.T) {
	pkg := tree.NewPackage("dev-libs", "foo")
	v := &tree.ExtendedVersion{Version: mustVer(t, "1.0")}
	v.AcceptKeywordTokens = []string{"~amd64"}

	l := mask.NewList()
	m, err := mask.ParseAtom(mask.TypeAcceptKeywords, "dev-libs/foo")
	require.NoError(t, err)
	m.Tokens = []string{"~x86"}
	l.Add(m)

	p := &Policy{AcceptKeywords: l}
	toks := p.userAcceptTokens(pkg, v)
	assert.Contains(t, toks, "~amd64")
	assert.Contains(t, toks, "~x86")
}
