package mask

import (
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/eix-go/eix/internal/version"
)

// Type distinguishes the five mask-list purposes spec §3 enumerates.
type Type int

const (
	TypeMask Type = iota
	TypeUnmask
	TypeSystem
	TypeKeywords
	TypeAcceptKeywords
)

// Op is a version-range comparison operator, as written on an atom.
type Op int

const (
	OpNone Op = iota // bare category/name: matches every version
	OpEqual
	OpEqualWildcard // trailing "*" on the version: prefix match
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpTilde // "~": matches any revision of the given version
)

// Mask is a constraint over (category, name, version-range, slot) with an
// associated Type. For Type==TypeKeywords/TypeAcceptKeywords, Tokens holds
// the keyword-override tokens (e.g. "~amd64", "-*") carried by the line.
type Mask struct {
	Type     Type
	Category string
	// Name may be "*" to match every package name in Category (a wildcard
	// bucket, scanned rather than looked up by exact key).
	Name string
	Op   Op
	Ver  *version.Version // nil when Op==OpNone
	Slot string           // "" matches any slot

	Tokens []string

	// Origin records which overlay/profile contributed this line, so later
	// evaluation can report provenance (spec §4.F).
	Origin string
}

func (m *Mask) hasWildcardName() bool { return m.Name == "*" }

// Matches reports whether the single version ver (with the given slot)
// satisfies m's version-range and slot constraints. It does not check
// category/name; callers look those up via MaskList first.
func (m *Mask) Matches(ver *version.Version, slot string) bool {
	if m.Slot != "" && slot != "" && m.Slot != slot {
		return false
	}
	switch m.Op {
	case OpNone:
		return true
	case OpEqual:
		return version.Compare(ver, m.Ver) == 0
	case OpEqualWildcard:
		return strings.HasPrefix(ver.Full(), m.Ver.Full())
	case OpGreater:
		return version.Compare(ver, m.Ver) > 0
	case OpGreaterEqual:
		return version.Compare(ver, m.Ver) >= 0
	case OpLess:
		return version.Compare(ver, m.Ver) < 0
	case OpLessEqual:
		return version.Compare(ver, m.Ver) <= 0
	case OpTilde:
		return version.TildeCompare(ver, m.Ver) == 0
	default:
		return false
	}
}

// List is an indexed container of *Mask keyed by (category, name), with a
// separate scan bucket for wildcard names. Buckets are an insertion-ordered
// map (gods/linkedhashmap) since apply_masks (§4.B) must process masks in
// the order they were added, and a plain Go map gives no order guarantee.
type List struct {
	buckets  *linkedhashmap.Map // bucketKey -> []*Mask
	wildcard []*Mask
}

// NewList returns an empty mask list.
func NewList() *List {
	return &List{buckets: linkedhashmap.New()}
}

func bucketKey(category, name string) string { return category + "/" + name }

// Add inserts mask into its (category, name) bucket, or the wildcard scan
// bucket if mask.Name == "*".
func (l *List) Add(m *Mask) {
	if m.hasWildcardName() {
		l.wildcard = append(l.wildcard, m)
		return
	}
	k := bucketKey(m.Category, m.Name)
	existing, _ := l.buckets.Get(k)
	bucket, _ := existing.([]*Mask)
	bucket = append(bucket, m)
	l.buckets.Put(k, bucket)
}

// Get returns, in insertion order, every mask whose category/name
// constraint matches the given package, wildcard-bucket entries first
// (they represent broader, earlier-established distributor policy),
// followed by the package's own exact-key bucket.
func (l *List) Get(category, name string) []*Mask {
	var out []*Mask
	for _, m := range l.wildcard {
		if m.Category == category || m.Category == "*" {
			out = append(out, m)
		}
	}
	if v, ok := l.buckets.Get(bucketKey(category, name)); ok {
		out = append(out, v.([]*Mask)...)
	}
	return out
}

// Len reports the total number of masks held, wildcard entries included.
func (l *List) Len() int {
	n := len(l.wildcard)
	it := l.buckets.Iterator()
	for it.Next() {
		n += len(it.Value().([]*Mask))
	}
	return n
}
