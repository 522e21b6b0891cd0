// Package portagesettings loads make.globals/make.conf and derives the
// architecture and accepted-keywords sets the policy layer needs (spec
// §4.E).
package portagesettings

import (
	"path"
	"strings"

	"dario.cat/mergo"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-billy/v5"

	"github.com/eix-go/eix/internal/pathutil"
	"github.com/eix-go/eix/internal/userconfig"
)

// accumulatingKeys append rather than overwrite across make.globals ->
// make.conf -> environment (spec §4.E).
func isAccumulating(key string) bool {
	switch key {
	case "USE", "FEATURES", "ACCEPT_KEYWORDS":
		return true
	}
	return strings.HasPrefix(key, "CONFIG_")
}

// earlyKeys are applied from the environment before profile loading;
// lateKeys after.
var earlyKeys = map[string]bool{"PORTAGE_PROFILE": true, "PORTDIR": true, "PORTDIR_OVERLAY": true}
var lateKeys = map[string]bool{
	"USE": true, "CONFIG_PROTECT": true, "CONFIG_PROTECT_MASK": true,
	"FEATURES": true, "ARCH": true, "ACCEPT_KEYWORDS": true,
}

// Settings is the merged view of make.globals, make.conf, and the
// process environment.
type Settings struct {
	Scalars map[string]string
	Lists   map[string][]string

	PortDir              string
	PortDirOverlay       []string
	ArchSet              map[string]bool
	AcceptedKeywordsSet  map[string]bool
	AcceptKeywordsAsArch bool

	// AcceptTokens is the raw ARCH+ACCEPT_KEYWORDS token list, in file
	// order, before per-package overrides are folded in (spec §4.G's A).
	// userconfig.Policy.GlobalAccept resolves it alongside each package's
	// own accept-keyword tokens.
	AcceptTokens []string
}

// New returns an empty Settings ready for Load calls.
func New() *Settings {
	return &Settings{Scalars: make(map[string]string), Lists: make(map[string][]string)}
}

// Get returns a scalar setting, or "" if unset.
func (s *Settings) Get(key string) string { return s.Scalars[key] }

// GetList returns an accumulating setting's tokens, in the order they were
// appended.
func (s *Settings) GetList(key string) []string { return s.Lists[key] }

func (s *Settings) lookup(name string) (string, bool) {
	if isAccumulating(name) {
		v, ok := s.Lists[name]
		return strings.Join(v, " "), ok
	}
	v, ok := s.Scalars[name]
	return v, ok
}

// apply merges one KEY=VALUE assignment into s, honoring accumulating
// keys.
func (s *Settings) apply(key, value string) {
	if isAccumulating(key) {
		s.Lists[key] = append(s.Lists[key], strings.Fields(value)...)
		return
	}
	s.Scalars[key] = value
}

// LoadFile reads and applies one shell-assignment file, following `source`
// directives relative to dir (the directory containing path).
func LoadFile(fs billy.Filesystem, p string, s *Settings) error {
	f, err := fs.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := path.Dir(p)
	dec := NewDecoder(f, s.lookup)
	return dec.Decode(func(key, value string, isSource bool) error {
		if isSource {
			value, err := pathutil.ReplaceTildeWithHome(value)
			if err != nil {
				return err
			}
			sourced, err := securejoin.SecureJoin(dir, value)
			if err != nil {
				return err
			}
			return LoadFile(fs, sourced, s)
		}
		s.apply(key, value)
		return nil
	})
}

// ApplyEnvironment overlays environment-provided values onto s. pass
// selects which key set ("early" before profile loading, "late" after,
// per spec §4.E) is honored; lookup is typically os.LookupEnv.
func (s *Settings) ApplyEnvironment(pass string, lookup func(string) (string, bool)) {
	keys := lateKeys
	if pass == "early" {
		keys = earlyKeys
	}
	for key := range keys {
		if v, ok := lookup(key); ok {
			s.apply(key, v)
		}
	}
}

// Finalize normalizes PORTDIR (trailing slash), canonicalizes and
// deduplicates PORTDIR_OVERLAY, and derives ArchSet/AcceptedKeywordsSet
// from ARCH/ACCEPT_KEYWORDS via plus/minus resolution (spec §4.E/§4.G).
func (s *Settings) Finalize() error {
	s.PortDir = strings.TrimRight(s.Scalars["PORTDIR"], "/") + "/"

	seen := make(map[string]bool)
	var overlays []string
	for _, o := range strings.Fields(s.Scalars["PORTDIR_OVERLAY"]) {
		clean := path.Clean(o)
		if !seen[clean] {
			seen[clean] = true
			overlays = append(overlays, clean)
		}
	}
	s.PortDirOverlay = overlays

	archResolved := userconfig.ResolvePlusMinus(strings.Fields(s.Scalars["ARCH"]))
	s.ArchSet = archResolved.Tokens

	acceptTokens := append(append([]string{}, strings.Fields(s.Scalars["ARCH"])...), s.Lists["ACCEPT_KEYWORDS"]...)
	acceptResolved := userconfig.ResolvePlusMinus(acceptTokens)
	s.AcceptedKeywordsSet = acceptResolved.Tokens
	s.AcceptTokens = acceptTokens

	return nil
}

// EffectiveArchSet returns whichever of ArchSet/AcceptedKeywordsSet local
// redundancy checks should use, per AcceptKeywordsAsArch (spec §4.E).
func (s *Settings) EffectiveArchSet() map[string]bool {
	if s.AcceptKeywordsAsArch {
		return s.AcceptedKeywordsSet
	}
	return s.ArchSet
}

// MergeOverrides folds child (a later, higher-priority Settings, e.g. a
// profile's make.defaults) into base, letting mergo handle the scalar
// overwrite semantics and appending accumulating-key lists explicitly
// (mergo's generic map merge does not know which keys accumulate).
func MergeOverrides(base, child *Settings) error {
	if err := mergo.Merge(&base.Scalars, child.Scalars, mergo.WithOverride); err != nil {
		return err
	}
	for key, vals := range child.Lists {
		base.Lists[key] = append(base.Lists[key], vals...)
	}
	return nil
}
