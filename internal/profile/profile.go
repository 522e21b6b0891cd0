// Package profile implements the cascading profile walk: starting from
// /etc/make.profile, following each profile's "parent" file to build an
// ordered list of contributing files, then resolving those files into
// MaskLists once the full architecture set is known (spec §4.F).
package profile

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/eix-go/eix/internal/mask"
	"github.com/eix-go/eix/internal/portagesettings"
	"github.com/eix-go/eix/internal/tree"
)

// ProfileFile is one file discovered while walking the parent chain,
// tagged with the overlay it came from so later evaluation can report
// provenance (spec §4.F).
type ProfileFile struct {
	Path         string
	OverlayLabel string
}

type rawLine struct {
	text string
	file ProfileFile
}

// Profile is the cascading profile for one run: every packages/
// package.mask/package.unmask/package.keywords/package.accept_keywords/
// make.defaults file along the active profile's parent chain, resolved
// into MaskLists by Finalize.
type Profile struct {
	FS billy.Filesystem

	Files    []ProfileFile
	Settings *portagesettings.Settings

	pSystem                                                               []rawLine
	pSystemAllowed                                                        []rawLine
	pPackageMasks, pPackageUnmasks                                        []rawLine
	pPackageKeywords, pPackageAcceptKeywords                              []rawLine

	System, SystemAllowed                   *mask.List
	PackageMasks, PackageUnmasks             *mask.List
	PackageKeywords, PackageAcceptKeywords   *mask.List

	finalized bool
}

// New returns an empty Profile reading from fs.
func New(fs billy.Filesystem) *Profile {
	return &Profile{FS: fs, Settings: portagesettings.New()}
}

// profileFileNames is the set of files relevant to every profile directory
// along the chain.
var profileFileNames = []string{
	"packages", "package.mask", "package.unmask",
	"package.keywords", "package.accept_keywords", "make.defaults",
}

// ListAddProfile walks the parent chain starting at dir, recording every
// relevant file into p.Files. Parents (named one per line in a "parent"
// file, relative to dir) are visited, and fully resolved, before dir's own
// files are appended — later entries in the final list take precedence
// over earlier ones in the mask-then-unmask evaluation order
// (tree.ApplyMasks), so base profiles must precede the profile that
// extends them. This is the traversal cascadingprofile.h performs,
// described there as depth-first: the recursion bottoms out at the least
// specific ancestor before any of that ancestor's own files are recorded.
func (p *Profile) ListAddProfile(dir, overlayLabel string) error {
	return p.listAddProfile(dir, overlayLabel, make(map[string]bool))
}

func (p *Profile) listAddProfile(dir, overlayLabel string, visiting map[string]bool) error {
	clean := path.Clean(dir)
	if visiting[clean] {
		return fmt.Errorf("profile: cyclic parent chain at %s", clean)
	}
	visiting[clean] = true

	if parents, err := p.readParentFile(clean); err == nil {
		for _, rel := range parents {
			parentDir := path.Clean(path.Join(clean, rel))
			if err := p.listAddProfile(parentDir, overlayLabel, visiting); err != nil {
				return err
			}
		}
	}

	for _, name := range profileFileNames {
		fp := path.Join(clean, name)
		if _, err := p.FS.Stat(fp); err != nil {
			continue
		}
		p.Files = append(p.Files, ProfileFile{Path: fp, OverlayLabel: overlayLabel})
	}
	return nil
}

func (p *Profile) readParentFile(dir string) ([]string, error) {
	lines, err := readLines(p.FS, path.Join(dir, "parent"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, l := range lines {
		l = stripComment(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

func readLines(fs billy.Filesystem, p string) ([]string, error) {
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
	return strings.Split(buf.String(), "\n"), nil
}

func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	return line
}

// ReadMakeDefaults reads every make.defaults file recorded in p.Files, in
// order, merging each into p.Settings (spec §4.F). Later files override
// scalar keys and append to accumulating ones, via
// portagesettings.MergeOverrides.
func (p *Profile) ReadMakeDefaults() error {
	for _, f := range p.Files {
		if path.Base(f.Path) != "make.defaults" {
			continue
		}
		child := portagesettings.New()
		if err := portagesettings.LoadFile(p.FS, f.Path, child); err != nil {
			return err
		}
		if err := portagesettings.MergeOverrides(p.Settings, child); err != nil {
			return err
		}
	}
	return nil
}

// ReadRemoveFiles reads every mask/system file recorded in p.Files into
// pre-lists and clears p.Files (spec §4.F): "read_remove_files() reads the
// mask/keyword files into pre-lists."
func (p *Profile) ReadRemoveFiles() (bool, error) {
	changed := false
	for _, f := range p.Files {
		lines, err := readLines(p.FS, f.Path)
		if err != nil {
			return changed, err
		}
		base := path.Base(f.Path)
		for _, raw := range lines {
			line := stripComment(raw)
			if line == "" {
				continue
			}
			changed = true
			rl := rawLine{text: line, file: f}
			switch base {
			case "packages":
				if strings.HasPrefix(line, "*") {
					rl.text = strings.TrimPrefix(line, "*")
					p.pSystem = append(p.pSystem, rl)
				} else {
					p.pSystemAllowed = append(p.pSystemAllowed, rl)
				}
			case "package.mask":
				p.pPackageMasks = append(p.pPackageMasks, rl)
			case "package.unmask":
				p.pPackageUnmasks = append(p.pPackageUnmasks, rl)
			case "package.keywords":
				p.pPackageKeywords = append(p.pPackageKeywords, rl)
			case "package.accept_keywords":
				p.pPackageAcceptKeywords = append(p.pPackageAcceptKeywords, rl)
			}
		}
	}
	p.Files = nil
	return changed, nil
}

// ErrAlreadyFinalized is returned by Finalize on any call after the first.
var ErrAlreadyFinalized = errors.New("profile: finalize called more than once")

// Finalize resolves every pre-list into its MaskList, now that the full
// arch set is known. It must be called exactly once (spec §4.F).
func (p *Profile) Finalize() error {
	if p.finalized {
		return ErrAlreadyFinalized
	}
	p.finalized = true

	p.System = resolveAtoms(p.pSystem, mask.TypeSystem)
	p.SystemAllowed = resolveAtoms(p.pSystemAllowed, mask.TypeSystem)
	p.PackageMasks = resolveAtoms(p.pPackageMasks, mask.TypeMask)
	p.PackageUnmasks = resolveAtoms(p.pPackageUnmasks, mask.TypeUnmask)
	p.PackageKeywords = resolveTokenLines(p.pPackageKeywords, mask.TypeKeywords)
	p.PackageAcceptKeywords = resolveTokenLines(p.pPackageAcceptKeywords, mask.TypeAcceptKeywords)
	return nil
}

func resolveAtoms(lines []rawLine, typ mask.Type) *mask.List {
	l := mask.NewList()
	for _, rl := range lines {
		m, err := mask.ParseAtom(typ, rl.text)
		if err != nil {
			continue
		}
		m.Origin = rl.file.OverlayLabel
		l.Add(m)
	}
	return l
}

// resolveTokenLines parses lines of the form "<atom> token1 token2 ..."
// (package.keywords/package.accept_keywords), storing the trailing tokens
// on the Mask.
func resolveTokenLines(lines []rawLine, typ mask.Type) *mask.List {
	l := mask.NewList()
	for _, rl := range lines {
		fields := strings.Fields(rl.text)
		if len(fields) == 0 {
			continue
		}
		m, err := mask.ParseAtom(typ, fields[0])
		if err != nil {
			continue
		}
		m.Tokens = fields[1:]
		m.Origin = rl.file.OverlayLabel
		l.Add(m)
	}
	return l
}

// ApplyMasks applies System, then PackageMasks, then PackageUnmasks to pkg
// (spec §4.F). System masks set SYSTEM; unmask/mask interact via the
// mask-then-unmask-wins semantics tree.ApplyMasks already implements for a
// single list, so here the lists are fed in override order: broader
// profile masks, then the unmasks that cancel them, matching portage's
// "package.unmask can restore what package.mask or a profile masked".
func (p *Profile) ApplyMasks(pkg *tree.Package) {
	if p.System != nil {
		tree.ApplyMasks(pkg, p.System)
	}
	if p.PackageMasks != nil {
		tree.ApplyMasks(pkg, p.PackageMasks)
	}
	if p.PackageUnmasks != nil {
		tree.ApplyMasks(pkg, p.PackageUnmasks)
	}
}

// ApplyKeywords applies package.keywords then package.accept_keywords
// overrides from the profile to pkg's versions, accumulating tokens per
// (atom) rather than overwriting — portage semantics the spec calls out
// explicitly: "package.keywords accumulates within a single atom" whereas
// other per-(atom,key) overrides use last-write-wins (spec §4.F). These
// tokens become U (spec §4.G: "per-package accept-keywords from user
// files"), tracked separately from K (the version's own declared
// KEYWORDS) rather than merged into it — apply_keyword needs both as
// distinct inputs.
func (p *Profile) ApplyKeywords(pkg *tree.Package) {
	applyKeywordList(pkg, p.PackageKeywords)
	applyKeywordList(pkg, p.PackageAcceptKeywords)
}

func applyKeywordList(pkg *tree.Package, l *mask.List) {
	if l == nil {
		return
	}
	for _, m := range l.Get(pkg.Category, pkg.Name) {
		for _, v := range pkg.Versions {
			if !m.Matches(v.Version, v.Slot) {
				continue
			}
			v.AcceptKeywordTokens = append(v.AcceptKeywordTokens, m.Tokens...)
		}
	}
}
