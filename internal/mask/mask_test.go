package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eix-go/eix/internal/version"
)

func mustVer(t *testing.T, s string) *version.Version {
	v, err := version.Parse(s, true)
	require.NoError(t, err)
	return v
}

func TestListGetOrderAndWildcard(t *testing.T) {
	l := NewList()
	m1 := &Mask{Type: TypeMask, Category: "cat1", Name: "foo", Op: OpNone}
	m2 := &Mask{Type: TypeUnmask, Category: "cat1", Name: "foo", Op: OpEqual, Ver: mustVer(t, "1.0")}
	wc := &Mask{Type: TypeMask, Category: "cat1", Name: "*", Op: OpNone}
	l.Add(m1)
	l.Add(wc)
	l.Add(m2)

	got := l.Get("cat1", "foo")
	require.Len(t, got, 3)
	assert.Same(t, wc, got[0], "wildcard entries come first")
	assert.Same(t, m1, got[1])
	assert.Same(t, m2, got[2])

	assert.Equal(t, []*Mask{wc}, l.Get("cat1", "bar"), "the cat1/* entry matches every name in cat1")
	assert.Equal(t, 3, l.Len())
}

func TestMaskMatchesVersionRange(t *testing.T) {
	m := &Mask{Op: OpGreaterEqual, Ver: mustVer(t, "2.0")}
	assert.True(t, m.Matches(mustVer(t, "2.1"), ""))
	assert.False(t, m.Matches(mustVer(t, "1.9"), ""))

	wild := &Mask{Op: OpEqualWildcard, Ver: mustVer(t, "1.2")}
	assert.True(t, wild.Matches(mustVer(t, "1.2.3"), ""))
	assert.False(t, wild.Matches(mustVer(t, "1.3"), ""))

	slotted := &Mask{Op: OpNone, Slot: "2"}
	assert.True(t, slotted.Matches(mustVer(t, "1.0"), "2"))
	assert.False(t, slotted.Matches(mustVer(t, "1.0"), "3"))
}
