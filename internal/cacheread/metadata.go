package cacheread

import (
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/version"
)

// PathMode selects where package directories are found under an overlay,
// grounded on original_source/src/cache/metadata/metadata.cc's PathType.
type PathMode int

const (
	// PathFull reads the ebuild tree itself: <portdir>/<category>.
	PathFull PathMode = iota
	// PathRepository reads var/cache/edb/dep/<repo-name>/<category>
	// (portage-2.0 layout), with the repo name defaulting to an
	// "x-"-prefixed guess derived from the overlay path when unset.
	PathRepository
	// PathMetadata reads <portdir>/metadata/cache/<category>.
	PathMetadata
	// PathMetadataMD5 reads <portdir>/metadata/md5-cache/<category>.
	PathMetadataMD5
	// PathMetadataMD5OR tries PathMetadataMD5 first, falling back to
	// PathMetadata (and switching file-format mode accordingly) if the
	// md5-cache directory is absent.
	PathMetadataMD5OR
)

// FileFormat selects how one cache file's contents are parsed.
type FileFormat int

const (
	FormatFlat FileFormat = iota
	FormatAssign
)

const (
	metadataPath    = "metadata/cache"
	metadataMD5Path = "metadata/md5-cache"
	portage20Path   = "var/cache/edb/dep"
)

// flatFields is the fixed line order of the flat cache format (spec §4.C:
// "fixed line order (SLOT line #4, etc.)"). SLOT landing on line 4 (index
// 3) is the spec's one explicit data point; DEPEND/RDEPEND/PDEPEND precede
// it as portage's metadata.cache layout has always ordered the dependency
// strings first.
var flatFields = []string{
	"DEPEND", "RDEPEND", "PDEPEND", "SLOT",
	"SRC_URI", "RESTRICT", "HOMEPAGE", "LICENSE",
	"DESCRIPTION", "KEYWORDS", "IUSE", "PROVIDE",
}

// Metadata ingests the flat/assign/md5 ebuild-metadata cache layouts (spec
// §4.C), configured by a token string the same way the original cache spec
// recognizes "metadata", "md5", "flat", "assign", "repo", "portage-2.0",
// "portage-2.1", "backport" plus an optional ":override-path" suffix.
type Metadata struct {
	FS billy.Filesystem

	// PortDir is the overlay's root (m_scheme in the original).
	PortDir string
	// OverlayName is the repository name used to resolve PathRepository
	// when no override path is given; if empty it is guessed from PortDir.
	OverlayName string
	// OverlayKey is assigned to every version ingested from this overlay.
	OverlayKey int

	pathMode     PathMode
	format       FileFormat
	overridePath string
	checkMD5     bool
}

// NewMetadata parses spec (a token string as described on Metadata) and
// returns a configured ingestor, or false if spec matches none of the
// recognized layouts.
func NewMetadata(fs billy.Filesystem, portDir, overlayName string, overlayKey int, spec string) (*Metadata, bool) {
	m := &Metadata{FS: fs, PortDir: portDir, OverlayName: overlayName, OverlayKey: overlayKey}
	name := spec
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		m.overridePath = spec[i+1:]
		name = spec[:i]
	}
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "metadata"):
		flatTok := strings.Contains(lower, "flat")
		assignTok := !flatTok && strings.Contains(lower, "assign")
		switch {
		case strings.Contains(lower, "md5"):
			switch {
			case flatTok:
				if m.overridePath != "" {
					m.setMode(PathMetadataMD5, false)
				} else {
					m.setMode(PathMetadataMD5OR, true)
				}
			case assignTok:
				if m.overridePath != "" {
					m.setMode(PathMetadataMD5, false)
				} else {
					m.setMode(PathMetadataMD5OR, false)
				}
			default:
				m.checkMD5 = true
				m.setMode(PathMetadataMD5, false)
			}
		default:
			m.setMode(PathMetadata, flatTok || strings.ContainsRune(name, '*'))
		}
		return m, true

	case strings.Contains(lower, "repo"):
		switch {
		case strings.Contains(lower, "flat"):
			m.setMode(PathRepository, true)
			return m, true
		case strings.Contains(lower, "assign"):
			m.setMode(PathRepository, false)
			return m, true
		}
		return nil, false

	case lower == "flat" || strings.Contains(lower, "portage-2.0"):
		m.setMode(PathFull, true)
		return m, true

	case lower == "assign" || strings.Contains(lower, "backport") || strings.Contains(lower, "portage-2.1"):
		m.setMode(PathFull, false)
		return m, true
	}
	return nil, false
}

func (m *Metadata) setMode(mode PathMode, flat bool) {
	m.pathMode = mode
	if flat {
		m.format = FormatFlat
	} else {
		m.format = FormatAssign
	}
}

// categoryDir returns the directory to scan for a given category,
// resolving PATH_METADATAMD5OR's two-step path/format choice (spec's
// REDESIGN FLAGS: "model it as a two-step resolve() that returns both the
// chosen path and the effective format").
func (m *Metadata) categoryDir(category string) (dir string, alt string) {
	if m.overridePath != "" {
		return path.Join(m.overridePath, category), ""
	}

	base := m.PortDir
	switch m.pathMode {
	case PathMetadata:
		return path.Join(base, metadataPath, category), ""
	case PathMetadataMD5:
		return path.Join(base, metadataMD5Path, category), ""
	case PathMetadataMD5OR:
		return path.Join(base, metadataMD5Path, category), path.Join(base, metadataPath, category)
	case PathRepository:
		repo := m.OverlayName
		if repo == "" {
			repo = guessRepoName(m.PortDir)
		}
		return path.Join(base, portage20Path, repo, category), ""
	default: // PathFull
		return path.Join(base, category), ""
	}
}

// guessRepoName reproduces Paludis' fallback for a missing repo_name file
// (original_source/src/cache/metadata/metadata.cc): the last non-empty
// path component of dir, prefixed with "x-".
func guessRepoName(dir string) string {
	trimmed := strings.TrimRight(dir, "/")
	base := trimmed
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		base = trimmed[i+1:]
	}
	return "x-" + base
}

// ReadCategories scans every category directory present under the
// configured path mode and ingests each <package>-<version> file it finds.
func (m *Metadata) ReadCategories(t *tree.PackageTree, filter Filter) error {
	categories := filter.Categories()
	if categories == nil {
		names, err := scandirNames(m.FS, m.pathModeParent())
		if err != nil {
			return nil // no such overlay subtree; nothing to ingest
		}
		categories = names
	}

	for _, cat := range categories {
		if !filter.Allows(cat) {
			continue
		}
		if err := m.readCategory(t, cat); err != nil {
			return err
		}
	}
	return nil
}

// pathModeParent returns the directory that holds all category
// directories, used only for ModeAll category discovery.
func (m *Metadata) pathModeParent() string {
	dir, _ := m.categoryDir("")
	return strings.TrimRight(dir, "/")
}

func (m *Metadata) readCategory(t *tree.PackageTree, category string) error {
	dir, alt := m.categoryDir(category)
	entries, err := scandirNames(m.FS, dir)
	effectiveFormat := m.format
	if (err != nil || len(entries) == 0) && m.pathMode == PathMetadataMD5OR {
		if m.format == FormatFlat {
			effectiveFormat = FormatAssign
		}
		dir = alt
		entries, err = scandirNames(m.FS, dir)
	}
	if err != nil {
		return nil
	}

	destCat := t.Category(category)
	if destCat == nil {
		return nil
	}

	type fileEntry struct {
		pkgName, verStr, fileName string
	}
	byPkg := make(map[string][]fileEntry)
	var order []string
	for _, name := range entries {
		pkgName, verStr, ok := splitAtomFile(name)
		if !ok {
			continue
		}
		if _, seen := byPkg[pkgName]; !seen {
			order = append(order, pkgName)
		}
		byPkg[pkgName] = append(byPkg[pkgName], fileEntry{pkgName, verStr, name})
	}

	for _, pkgName := range order {
		pkg := destCat.Package(pkgName)
		for _, fe := range byPkg[pkgName] {
			v, err := version.Parse(fe.verStr, true)
			if err != nil {
				continue
			}
			fields, err := readMetadataFile(m.FS, path.Join(dir, fe.fileName), effectiveFormat)
			if err != nil {
				continue
			}
			ev := &tree.ExtendedVersion{
				Version:      v,
				Slot:         fields["SLOT"],
				FullKeywords: fields["KEYWORDS"],
				IUse:         fields["IUSE"],
				Depend:       fields["DEPEND"],
				RDepend:      fields["RDEPEND"],
				PDepend:      fields["PDEPEND"],
				OverlayKey:   m.OverlayKey,
			}
			ev.RestrictFlags = parseRestrict(fields["RESTRICT"])
			ev.PropertiesFlags = parseProperties(fields["PROPERTIES"])
			pkg.AddVersion(ev, tree.OneTimeFields{
				Homepage:    fields["HOMEPAGE"],
				Licenses:    fields["LICENSE"],
				Description: fields["DESCRIPTION"],
				Provide:     fields["PROVIDE"],
			})
		}
	}
	return nil
}

// splitAtomFile splits a cache file name "pkgname-version" into its two
// parts, the same split ExplodeAtom performs on a category entry.
func splitAtomFile(name string) (pkgName, ver string, ok bool) {
	i := strings.LastIndexByte(name, '-')
	for i > 0 {
		candidate := name[i+1:]
		if len(candidate) > 0 && (candidate[0] >= '0' && candidate[0] <= '9') {
			return name[:i], candidate, true
		}
		i = strings.LastIndexByte(name[:i], '-')
	}
	return "", "", false
}

// scandirNames lists entries of dir passing the cachefiles_selector
// filter: not dotfiles, and containing a '-' (spec grounds this on
// original_source/src/eixTk/sysutils.h's scandir_cc wrapper).
func scandirNames(fs billy.Filesystem, dir string) ([]string, error) {
	infos, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if len(name) == 0 || name[0] == '.' {
			continue
		}
		if !strings.ContainsRune(name, '-') {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

func readMetadataFile(fs billy.Filesystem, p string, format FileFormat) (map[string]string, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf strings.Builder
	chunk := make([]byte, 4096)
	for {
		n, rerr := f.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if rerr != nil {
			break
		}
	}
	content := buf.String()

	if format == FormatFlat {
		return parseFlat(content), nil
	}
	return parseAssign(content), nil
}

func parseFlat(content string) map[string]string {
	lines := strings.Split(content, "\n")
	out := make(map[string]string, len(flatFields))
	for i, field := range flatFields {
		if i < len(lines) {
			out[field] = lines[i]
		}
	}
	return out
}

// assignKnownKeys is the key set parseAssign recognizes (spec §4.C's
// "known keys" list for assign format).
var assignKnownKeys = map[string]bool{
	"KEYWORDS": true, "SLOT": true, "IUSE": true, "RESTRICT": true,
	"PROPERTIES": true, "DEPEND": true, "RDEPEND": true, "PDEPEND": true,
	"DESCRIPTION": true, "HOMEPAGE": true, "LICENSE": true, "PROVIDE": true,
	"_md5_": true,
}

func parseAssign(content string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := line[:eq]
		if !assignKnownKeys[key] {
			continue
		}
		out[key] = line[eq+1:]
	}
	return out
}

func parseRestrict(s string) tree.RestrictFlags {
	var f tree.RestrictFlags
	for _, tok := range strings.Fields(s) {
		switch strings.TrimPrefix(tok, "!") {
		case "fetch":
			f |= tree.RestrictFetch
		case "mirror":
			f |= tree.RestrictMirror
		case "primaryuri":
			f |= tree.RestrictPrimaryURI
		case "binchecks":
			f |= tree.RestrictBinchecks
		case "strip":
			f |= tree.RestrictStrip
		case "test":
			f |= tree.RestrictTest
		case "userpriv":
			f |= tree.RestrictUserpriv
		case "installsources":
			f |= tree.RestrictInstallSources
		case "bindist":
			f |= tree.RestrictBindist
		case "parallel":
			f |= tree.RestrictParallel
		}
	}
	return f
}

func parseProperties(s string) tree.PropertiesFlags {
	var f tree.PropertiesFlags
	for _, tok := range strings.Fields(s) {
		switch tok {
		case "interactive":
			f |= tree.PropertiesInteractive
		case "live":
			f |= tree.PropertiesLive
		case "virtual":
			f |= tree.PropertiesVirtual
		case "set":
			f |= tree.PropertiesSet
		}
	}
	return f
}

// md5Sum returns the _md5_ field of an already-parsed assign-format file,
// present only when NewMetadata turned checkMD5 on.
func (m *Metadata) md5Sum(fields map[string]string) (string, bool) {
	if !m.checkMD5 {
		return "", false
	}
	v, ok := fields["_md5_"]
	return v, ok
}
