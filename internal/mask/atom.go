package mask

import (
	"errors"
	"strings"

	"github.com/eix-go/eix/internal/version"
)

// ErrBadAtom is returned by ParseAtom when line does not parse as a valid
// dependency atom.
var ErrBadAtom = errors.New("mask: invalid atom")

// atomOps is tried longest-prefix-first so ">=" is not mistaken for ">".
var atomOps = []struct {
	prefix string
	op     Op
}{
	{">=", OpGreaterEqual},
	{"<=", OpLessEqual},
	{"=", OpEqual},
	{">", OpGreater},
	{"<", OpLess},
	{"~", OpTilde},
}

// ParseAtom parses one dependency atom line (as found in package.mask,
// package.unmask, packages, etc.) into a *Mask with the given Type. It
// recognizes the leading operator (none, "=", ">=", ">" ,"<=", "<", "~"),
// a trailing ":slot" restriction, and (for "=") a trailing "*" making the
// version a prefix match (spec §3/§4.B).
func ParseAtom(typ Type, line string) (*Mask, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return nil, ErrBadAtom
	}

	if s == "*/*" {
		return &Mask{Type: typ, Category: "*", Name: "*", Op: OpNone}, nil
	}

	op := OpNone
	for _, cand := range atomOps {
		if strings.HasPrefix(s, cand.prefix) {
			op = cand.op
			s = s[len(cand.prefix):]
			break
		}
	}

	slot := ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		slot = s[i+1:]
		s = s[:i]
	}

	wildcard := false
	if op == OpEqual && strings.HasSuffix(s, "*") {
		wildcard = true
		s = strings.TrimSuffix(s, "*")
	}

	slash := strings.IndexByte(s, '/')
	if slash < 0 {
		return nil, ErrBadAtom
	}
	category := s[:slash]
	rest := s[slash+1:]
	if category == "" || rest == "" {
		return nil, ErrBadAtom
	}

	m := &Mask{Type: typ, Category: category, Slot: slot}

	if op == OpNone {
		m.Name = rest
		m.Op = OpNone
		return m, nil
	}

	name, verStr, ok := version.ExplodeAtom(rest)
	if !ok {
		return nil, ErrBadAtom
	}
	ver, err := version.Parse(verStr, true)
	if err != nil {
		return nil, ErrBadAtom
	}
	m.Name = name
	m.Ver = ver
	if wildcard {
		m.Op = OpEqualWildcard
	} else {
		m.Op = op
	}
	return m, nil
}
