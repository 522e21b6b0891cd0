package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAtomBare(t *testing.T) {
	m, err := ParseAtom(TypeMask, "dev-libs/foo")
	require.NoError(t, err)
	assert.Equal(t, "dev-libs", m.Category)
	assert.Equal(t, "foo", m.Name)
	assert.Equal(t, OpNone, m.Op)
}

func TestParseAtomEqualVersion(t *testing.T) {
	m, err := ParseAtom(TypeMask, "=dev-libs/foo-1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "foo", m.Name)
	assert.Equal(t, OpEqual, m.Op)
	assert.Equal(t, "1.2.3", m.Ver.Full())
}

func TestParseAtomWildcard(t *testing.T) {
	m, err := ParseAtom(TypeMask, "=dev-libs/foo-1.2*")
	require.NoError(t, err)
	assert.Equal(t, OpEqualWildcard, m.Op)
	assert.Equal(t, "1.2", m.Ver.Full())
}

func TestParseAtomOperatorsAndSlot(t *testing.T) {
	m, err := ParseAtom(TypeUnmask, ">=dev-libs/foo-2.0:0")
	require.NoError(t, err)
	assert.Equal(t, OpGreaterEqual, m.Op)
	assert.Equal(t, "0", m.Slot)

	m, err = ParseAtom(TypeMask, "~dev-libs/foo-2.0")
	require.NoError(t, err)
	assert.Equal(t, OpTilde, m.Op)
}

func TestParseAtomWildcardCategoryName(t *testing.T) {
	m, err := ParseAtom(TypeMask, "*/*")
	require.NoError(t, err)
	assert.Equal(t, "*", m.Category)
	assert.Equal(t, "*", m.Name)
}

func TestParseAtomRejectsGarbage(t *testing.T) {
	_, err := ParseAtom(TypeMask, "not-an-atom")
	assert.ErrorIs(t, err, ErrBadAtom)
}
