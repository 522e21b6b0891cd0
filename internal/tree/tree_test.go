package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eix-go/eix/internal/mask"
	"github.com/eix-go/eix/internal/version"
)

func mustVer(t *testing.T, s string) *version.Version {
	v, err := version.Parse(s, true)
	require.NoError(t, err)
	return v
}

func TestPackageLatestIsMaxByCompare(t *testing.T) {
	p := NewPackage("cat1", "foo")
	for _, s := range []string{"1.0", "2.0", "1.5"} {
		p.AddVersion(&ExtendedVersion{Version: mustVer(t, s)}, OneTimeFields{})
	}
	require.NotNil(t, p.Latest())
	assert.Equal(t, "2.0", p.Latest().Full())
}

func TestAddVersionCopiesOneTimeFieldsFromLatest(t *testing.T) {
	p := NewPackage("cat1", "foo")
	p.AddVersion(&ExtendedVersion{Version: mustVer(t, "1.0"), IUse: "foo bar"}, OneTimeFields{Description: "old"})
	assert.Equal(t, "old", p.Description)

	p.AddVersion(&ExtendedVersion{Version: mustVer(t, "2.0"), IUse: "+baz -qux"}, OneTimeFields{Description: "new"})
	assert.Equal(t, "new", p.Description)

	_, hasFoo := p.CollIuse["foo"]
	_, hasBaz := p.CollIuse["baz"]
	_, hasQux := p.CollIuse["qux"]
	assert.True(t, hasFoo)
	assert.True(t, hasBaz)
	assert.True(t, hasQux, "leading -/+ markers are collapsed before accumulating")
}

func TestCategoryAndTreeOrderingAndLookup(t *testing.T) {
	tr := New()
	c := tr.Category("cat1")
	c.Package("zeta")
	c.Package("alpha")

	var names []string
	require.NoError(t, c.Each(func(p *Package) error {
		names = append(names, p.Name)
		return nil
	}))
	assert.Equal(t, []string{"zeta", "alpha"}, names, "insertion order is preserved, not sorted")

	_, ok := tr.Lookup("cat1")
	assert.True(t, ok)
	_, ok = tr.Lookup("missing")
	assert.False(t, ok)
}

func TestNeedFastAccessRestrictsNewCategories(t *testing.T) {
	tr := New()
	tr.Category("existing")
	tr.NeedFastAccess([]string{"existing"})

	assert.NotNil(t, tr.Category("existing"))
	assert.Nil(t, tr.Category("brand-new"), "a category outside the filter cannot be created while restricted")

	tr.FinishFastAccess()
	assert.NotNil(t, tr.Category("brand-new"))
}

func TestApplyMasksMaskThenUnmaskEndsUnmasked(t *testing.T) {
	p := NewPackage("cat1", "foo")
	v := &ExtendedVersion{Version: mustVer(t, "1.0")}
	p.AddVersion(v, OneTimeFields{})

	l := mask.NewList()
	l.Add(&mask.Mask{Type: mask.TypeMask, Category: "cat1", Name: "foo", Op: mask.OpNone})
	l.Add(&mask.Mask{Type: mask.TypeUnmask, Category: "cat1", Name: "foo", Op: mask.OpNone})

	ApplyMasks(p, l)

	assert.True(t, v.MaskFlags.Has(mask.Unmasked))
	assert.False(t, v.MaskFlags.Has(mask.Masked), "a later UNMASK line clears an earlier MASK")
}
