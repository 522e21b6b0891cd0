package portagesettings

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAppliesAssignmentsAndExpansion(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/etc/portage", 0o755))
	f, err := fs.Create("/etc/portage/make.conf")
	require.NoError(t, err)
	_, err = f.Write([]byte("PORTDIR=/usr/portage\nPORTDIR_OVERLAY=\"${PORTDIR}/local //other\"\nUSE=\"foo bar\"\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s := New()
	require.NoError(t, LoadFile(fs, "/etc/portage/make.conf", s))
	assert.Equal(t, "/usr/portage", s.Get("PORTDIR"))
	assert.Equal(t, "/usr/portage/local //other", s.Get("PORTDIR_OVERLAY"))
	assert.Equal(t, []string{"foo", "bar"}, s.GetList("USE"))
}

func TestLoadFileFollowsSource(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/etc/portage", 0o755))
	inc, err := fs.Create("/etc/portage/make.globals")
	require.NoError(t, err)
	_, err = inc.Write([]byte("FEATURES=\"sandbox\"\n"))
	require.NoError(t, err)
	require.NoError(t, inc.Close())

	conf, err := fs.Create("/etc/portage/make.conf")
	require.NoError(t, err)
	_, err = conf.Write([]byte("source make.globals\nFEATURES=\"-sandbox ccache\"\n"))
	require.NoError(t, err)
	require.NoError(t, conf.Close())

	s := New()
	require.NoError(t, LoadFile(fs, "/etc/portage/make.conf", s))
	assert.Equal(t, []string{"sandbox", "-sandbox", "ccache"}, s.GetList("FEATURES"))
}

func TestFinalizeNormalizesPortDirAndOverlays(t *testing.T) {
	s := New()
	s.Scalars["PORTDIR"] = "/usr/portage/"
	s.Scalars["PORTDIR_OVERLAY"] = "/var/a /var/a /var/b/"
	s.Scalars["ARCH"] = "amd64"
	s.Lists["ACCEPT_KEYWORDS"] = []string{"~amd64"}

	require.NoError(t, s.Finalize())
	assert.Equal(t, "/usr/portage/", s.PortDir)
	assert.Equal(t, []string{"/var/a", "/var/b"}, s.PortDirOverlay)
	assert.True(t, s.ArchSet["amd64"])
	assert.True(t, s.AcceptedKeywordsSet["amd64"])
	assert.True(t, s.AcceptedKeywordsSet["~amd64"])
}

func TestMergeOverridesAppendsLists(t *testing.T) {
	base := New()
	base.Scalars["ARCH"] = "amd64"
	base.Lists["USE"] = []string{"foo"}

	child := New()
	child.Scalars["ARCH"] = "x86"
	child.Lists["USE"] = []string{"bar"}

	require.NoError(t, MergeOverrides(base, child))
	assert.Equal(t, "x86", base.Scalars["ARCH"])
	assert.Equal(t, []string{"foo", "bar"}, base.Lists["USE"])
}
