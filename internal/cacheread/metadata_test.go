package cacheread

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eix-go/eix/internal/tree"
)

func createFile(t *testing.T, fsys billy.Filesystem, p, content string) {
	f, err := fsys.Create(p)
	require.NoError(t, err)
	_, err = f.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestNewMetadataRecognizesTokens(t *testing.T) {
	fs := memfs.New()
	m, ok := NewMetadata(fs, "/usr/portage", "gentoo", 0, "metadata-flat")
	require.True(t, ok)
	assert.Equal(t, PathMetadata, m.pathMode)
	assert.Equal(t, FormatFlat, m.format)

	m, ok = NewMetadata(fs, "/usr/portage", "gentoo", 0, "assign")
	require.True(t, ok)
	assert.Equal(t, PathFull, m.pathMode)
	assert.Equal(t, FormatAssign, m.format)

	m, ok = NewMetadata(fs, "/usr/portage", "gentoo", 0, "portage-2.1")
	require.True(t, ok)
	assert.Equal(t, PathFull, m.pathMode)
	assert.Equal(t, FormatAssign, m.format)

	_, ok = NewMetadata(fs, "/usr/portage", "gentoo", 0, "nonsense")
	assert.False(t, ok)
}

func TestMetadataAssignFormatReadsPackage(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/repo/dev-libs", 0o755))
	createFile(t, fs, "/repo/dev-libs/foo-1.0",
		"SLOT=0\nKEYWORDS=amd64 ~x86\nIUSE=+bar\nDEPEND=dev-libs/bar\nDESCRIPTION=a test package\n")

	m, ok := NewMetadata(fs, "/repo", "gentoo", 2, "assign")
	require.True(t, ok)

	tr := tree.New()
	require.NoError(t, m.ReadCategories(tr, Filter{Mode: ModeSingle, Category: "dev-libs"}))

	cat, ok := tr.Lookup("dev-libs")
	require.True(t, ok)
	pkg, ok := cat.Lookup("foo")
	require.True(t, ok)
	require.Len(t, pkg.Versions, 1)
	v := pkg.Versions[0]
	assert.Equal(t, "1.0", v.Full())
	assert.Equal(t, "0", v.Slot)
	assert.Equal(t, "amd64 ~x86", v.FullKeywords)
	assert.Equal(t, 2, v.OverlayKey)
	assert.Equal(t, "a test package", pkg.Description)
}

func TestMetadataFlatFormatUsesFixedLineOrder(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/repo/sys-apps", 0o755))
	lines := []string{"dev-libs/bar", "", "", "0", "", "", "", "", "a flat package", "amd64", "", ""}
	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	createFile(t, fs, "/repo/sys-apps/baz-2.0", content)

	m, ok := NewMetadata(fs, "/repo", "gentoo", 0, "flat")
	require.True(t, ok)

	tr := tree.New()
	require.NoError(t, m.ReadCategories(tr, Filter{Mode: ModeSingle, Category: "sys-apps"}))

	cat, ok := tr.Lookup("sys-apps")
	require.True(t, ok)
	pkg, ok := cat.Lookup("baz")
	require.True(t, ok)
	require.Len(t, pkg.Versions, 1)
	v := pkg.Versions[0]
	assert.Equal(t, "0", v.Slot)
	assert.Equal(t, "amd64", v.FullKeywords)
	assert.Equal(t, "dev-libs/bar", v.Depend)
}

func TestSplitAtomFile(t *testing.T) {
	pkg, ver, ok := splitAtomFile("foo-bar-1.2.3")
	require.True(t, ok)
	assert.Equal(t, "foo-bar", pkg)
	assert.Equal(t, "1.2.3", ver)

	_, _, ok = splitAtomFile("noversionhere")
	assert.False(t, ok)
}

func TestGuessRepoName(t *testing.T) {
	assert.Equal(t, "x-local-overlay", guessRepoName("/var/overlays/local-overlay"))
	assert.Equal(t, "x-local-overlay", guessRepoName("/var/overlays/local-overlay/"))
}
