package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/version"
)

func TestFieldPackageStrings(t *testing.T) {
	pkg := tree.NewPackage("dev-libs", "foo")
	pkg.Description = "a library"
	pkg.Homepage = "https://example.org"

	require.Equal(t, []string{"foo"}, FieldName.PackageStrings(pkg))
	require.Equal(t, []string{"dev-libs"}, FieldCategory.PackageStrings(pkg))
	require.Equal(t, []string{"dev-libs/foo"}, FieldCategoryName.PackageStrings(pkg))
	require.Equal(t, []string{"a library"}, FieldDescription.PackageStrings(pkg))
	require.Equal(t, []string{"https://example.org"}, FieldHomepage.PackageStrings(pkg))
}

func TestFieldVersionStringsPerVersion(t *testing.T) {
	v, err := version.Parse("1.0", true)
	require.NoError(t, err)
	ev := &tree.ExtendedVersion{Version: v, Slot: "0", Depend: "dev-libs/bar", RDepend: "dev-libs/baz"}

	require.Equal(t, []string{"0"}, FieldSlot.VersionStrings(ev))
	require.Equal(t, []string{"dev-libs/bar"}, FieldDepend.VersionStrings(ev))
	require.Equal(t, []string{"dev-libs/bar", "dev-libs/baz", ""}, FieldDeps.VersionStrings(ev))
	require.True(t, FieldSlot.IsPerVersion())
	require.False(t, FieldName.IsPerVersion())
}

func TestAnyMatchSkipsEmptyStrings(t *testing.T) {
	require.False(t, anyMatch(NewExact("foo"), []string{"", ""}))
	require.True(t, anyMatch(NewExact("foo"), []string{"", "foo"}))
}
