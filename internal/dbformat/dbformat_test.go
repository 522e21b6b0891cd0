package dbformat

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/version"
)

func mustVer(t *testing.T, s string) *version.Version {
	v, err := version.Parse(s, true)
	require.NoError(t, err)
	return v
}

func buildSampleTree(t *testing.T) *tree.PackageTree {
	tr := tree.New()
	c := tr.Category("cat1")
	p := c.Package("foo")
	p.AddVersion(&tree.ExtendedVersion{
		Version:      mustVer(t, "1.0"),
		Slot:         "0",
		FullKeywords: "amd64 ~x86",
		IUse:         "+bar -baz",
		OverlayKey:   0,
	}, tree.OneTimeFields{Description: "a test package", Homepage: "https://example.test"})
	p.AddVersion(&tree.ExtendedVersion{
		Version:      mustVer(t, "2.0-r1"),
		Slot:         "0",
		FullKeywords: "~amd64",
		OverlayKey:   1,
	}, tree.OneTimeFields{Description: "a test package v2", Homepage: "https://example.test"})
	return tr
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tr := buildSampleTree(t)
	hdr := &Header{
		Version:       FormatVersion,
		Overlays:      []Overlay{{Path: "/usr/portage", Label: "gentoo", Priority: 0}, {Path: "/var/overlay", Label: "local", Priority: 10}},
		CategoryCount: uint64(tr.Len()),
		PackageCount:  1,
	}

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(tr, hdr))

	pr, gotHdr, err := NewPackageReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, hdr.Overlays, gotHdr.Overlays)

	ok, err := pr.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, FetchName, pr.Stage())
	assert.Equal(t, "foo", pr.Get().Name)

	require.NoError(t, pr.Read(FetchAll))
	pkg := pr.Get()
	require.Len(t, pkg.Versions, 2)
	assert.Equal(t, "1.0", pkg.Versions[0].Full())
	assert.Equal(t, "2.0-r1", pkg.Versions[1].Full())
	assert.Equal(t, "amd64 ~x86", pkg.Versions[0].FullKeywords)
	assert.Equal(t, 1, pkg.Versions[1].OverlayKey)
	assert.Equal(t, "a test package v2", pkg.Description)

	ok, err = pr.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPackageReaderSkipAvoidsDecodingVersions(t *testing.T) {
	tr := buildSampleTree(t)
	hdr := &Header{Version: FormatVersion, CategoryCount: uint64(tr.Len()), PackageCount: 1}

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(tr, hdr))

	pr, _, err := NewPackageReader(&buf)
	require.NoError(t, err)
	ok, err := pr.Next()
	require.NoError(t, err)
	require.True(t, ok)
	pr.Skip()
	assert.Empty(t, pr.Get().Versions, "Skip must not decode the versions section")
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	_, _, err := NewPackageReader(bytes.NewReader([]byte("not-a-cache-file")))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestHeaderRejectsNewerVersion(t *testing.T) {
	tr := tree.New()
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(tr, &Header{Version: FormatVersion + 1}))
	_, _, err := NewPackageReader(&buf)
	assert.ErrorIs(t, err, ErrFormatNewer)
}

func TestTruncatedFileReportsUnexpectedEOF(t *testing.T) {
	tr := buildSampleTree(t)
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(tr, &Header{Version: FormatVersion, CategoryCount: 1, PackageCount: 1}))

	// The reader never consumes the trailing 20-byte SHA-1 checksum, so cut
	// through all of it plus the last 4 bytes of the package blob.
	truncated := buf.Bytes()[:buf.Len()-20-4]
	pr, _, err := NewPackageReader(bytes.NewReader(truncated))
	require.NoError(t, err)
	_, err = pr.Next()
	if err == nil {
		err = pr.Read(FetchAll)
	}
	// Either Next or the later Read must surface the truncation; accept
	// either since the exact boundary depends on where the bytes were cut.
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestResolveOverlay(t *testing.T) {
	overlays := []Overlay{{Path: "/a", Label: "main"}, {Path: "/b", Label: "extra"}}
	assert.Equal(t, 0, ResolveOverlay(overlays, "/a", FallbackNone))
	assert.Equal(t, 1, ResolveOverlay(overlays, "extra", FallbackNone))
	assert.Equal(t, -1, ResolveOverlay(overlays, "missing", FallbackNone))
	assert.Equal(t, 0, ResolveOverlay(overlays, "missing", FallbackAllPath))
}
