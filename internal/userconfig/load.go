package userconfig

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/eix-go/eix/internal/mask"
)

// defaultConfigDir is where portage keeps its per-package user overrides
// (spec §6: "/etc/portage/{package.{mask,unmask,keywords,use,...}}").
const defaultConfigDir = "/etc/portage"

// LoadPolicy reads package.mask, package.unmask, package.keywords, and
// package.accept_keywords from dir into a Policy's mask.Lists (spec §4.G,
// §6). Missing files are not an error — per-package user overrides are
// optional — but a present file with unreadable content is.
func LoadPolicy(fs billy.Filesystem, dir string) (*Policy, error) {
	p := &Policy{}

	masks, err := loadAtoms(fs, path.Join(dir, "package.mask"), mask.TypeMask)
	if err != nil {
		return nil, err
	}
	p.Masks = masks

	unmasks, err := loadAtoms(fs, path.Join(dir, "package.unmask"), mask.TypeUnmask)
	if err != nil {
		return nil, err
	}
	p.Unmasks = unmasks

	keywords, err := loadTokenLines(fs, path.Join(dir, "package.keywords"), mask.TypeKeywords)
	if err != nil {
		return nil, err
	}
	p.Keywords = keywords

	acceptKeywords, err := loadTokenLines(fs, path.Join(dir, "package.accept_keywords"), mask.TypeAcceptKeywords)
	if err != nil {
		return nil, err
	}
	p.AcceptKeywords = acceptKeywords

	return p, nil
}

func loadAtoms(fs billy.Filesystem, name string, typ mask.Type) (*mask.List, error) {
	lines, err := readConfigLines(fs, name)
	if err != nil || lines == nil {
		return nil, err
	}
	l := mask.NewList()
	for _, line := range lines {
		m, err := mask.ParseAtom(typ, line)
		if err != nil {
			// Per-line parse failures are recovered, not fatal (spec §7:
			// "PolicyError... recovered per-line; skipped with a
			// diagnostic"). There is no error callback wired through yet,
			// so the offending line is simply dropped.
			continue
		}
		m.Origin = name
		l.Add(m)
	}
	return l, nil
}

func loadTokenLines(fs billy.Filesystem, name string, typ mask.Type) (*mask.List, error) {
	lines, err := readConfigLines(fs, name)
	if err != nil || lines == nil {
		return nil, err
	}
	l := mask.NewList()
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		m, err := mask.ParseAtom(typ, fields[0])
		if err != nil {
			continue
		}
		m.Tokens = fields[1:]
		m.Origin = name
		l.Add(m)
	}
	return l, nil
}

// readConfigLines returns name's non-blank, non-comment lines, or a nil
// slice (no error) if name does not exist.
func readConfigLines(fs billy.Filesystem, name string) ([]string, error) {
	f, err := fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
