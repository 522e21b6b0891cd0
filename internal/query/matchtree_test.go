package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/version"
)

func newExactNameLeaf(t *testing.T, pattern string) Leaf {
	alg := NewExact(pattern)
	return Leaf{Test: &PackageTest{Field: FieldName, Algorithm: alg}}
}

func TestAndOrNotShortCircuitSemantics(t *testing.T) {
	pkg := tree.NewPackage("dev-libs", "foo")
	v, err := version.Parse("1.0", true)
	require.NoError(t, err)
	pkg.AddVersion(&tree.ExtendedVersion{Version: v}, tree.OneTimeFields{})

	leafFoo := newExactNameLeaf(t, "foo")
	leafBar := newExactNameLeaf(t, "bar")

	require.True(t, And{Left: leafFoo, Right: leafFoo}.Eval(pkg))
	require.False(t, And{Left: leafFoo, Right: leafBar}.Eval(pkg))
	require.True(t, Or{Left: leafFoo, Right: leafBar}.Eval(pkg))
	require.False(t, Or{Left: leafBar, Right: leafBar}.Eval(pkg))
	require.False(t, Not{Child: leafFoo}.Eval(pkg))
	require.True(t, Not{Child: leafBar}.Eval(pkg))
}
