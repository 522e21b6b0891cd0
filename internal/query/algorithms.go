package query

import (
	"regexp"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Algorithm is the tagged-sum-type string matcher leaves use (spec §9:
// "dynamic dispatch over algorithm variants is trivially a tagged sum
// type with one method").
type Algorithm interface {
	Match(s string) bool
}

type exactAlgorithm struct{ pattern string }

func (a exactAlgorithm) Match(s string) bool { return s == a.pattern }

// NewExact matches s == pattern.
func NewExact(pattern string) Algorithm { return exactAlgorithm{pattern} }

type beginAlgorithm struct{ prefix string }

func (a beginAlgorithm) Match(s string) bool { return strings.HasPrefix(s, a.prefix) }

// NewBegin matches a prefix.
func NewBegin(prefix string) Algorithm { return beginAlgorithm{prefix} }

type endAlgorithm struct{ suffix string }

func (a endAlgorithm) Match(s string) bool { return strings.HasSuffix(s, a.suffix) }

// NewEnd matches a suffix.
func NewEnd(suffix string) Algorithm { return endAlgorithm{suffix} }

type substringAlgorithm struct{ needle string }

func (a substringAlgorithm) Match(s string) bool { return strings.Contains(s, a.needle) }

// NewSubstring matches a fixed substring anywhere in s.
func NewSubstring(needle string) Algorithm { return substringAlgorithm{needle} }

// patternCache/regexCache memoize compiled glob->regexp.Regexp and
// user-supplied regular expressions keyed by their source text, so
// repeated leaves over one evaluator run (e.g. the same pattern reused
// across several synthetic pipe-mode tests) do not recompile (spec §9:
// "compile the regex at finalize() time").
var (
	cacheMu     sync.Mutex
	patternLRU  = lru.New(256)
	regexLRU    = lru.New(256)
)

type patternAlgorithm struct{ re *regexp.Regexp }

func (a patternAlgorithm) Match(s string) bool { return a.re.MatchString(s) }

// NewPattern compiles a shell-style glob (`*?[...]`) into an Algorithm.
func NewPattern(glob string) (Algorithm, error) {
	cacheMu.Lock()
	if v, ok := patternLRU.Get(glob); ok {
		cacheMu.Unlock()
		return patternAlgorithm{re: v.(*regexp.Regexp)}, nil
	}
	cacheMu.Unlock()

	re, err := globToRegexp(glob)
	if err != nil {
		return nil, err
	}
	cacheMu.Lock()
	patternLRU.Add(glob, re)
	cacheMu.Unlock()
	return patternAlgorithm{re: re}, nil
}

// globToRegexp translates a `*?[...]` glob into an anchored regexp,
// reusing path.Match's character-class semantics by hand since
// path.Match has no "compile once, match many" form.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			j := strings.IndexByte(glob[i:], ']')
			if j < 0 {
				b.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			b.WriteString(glob[i : i+j+1])
			i += j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

type regexAlgorithm struct{ re *regexp.Regexp }

func (a regexAlgorithm) Match(s string) bool { return a.re.MatchString(s) }

// NewRegex compiles an extended regular expression.
func NewRegex(expr string) (Algorithm, error) {
	cacheMu.Lock()
	if v, ok := regexLRU.Get(expr); ok {
		cacheMu.Unlock()
		return regexAlgorithm{re: v.(*regexp.Regexp)}, nil
	}
	cacheMu.Unlock()

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	cacheMu.Lock()
	regexLRU.Add(expr, re)
	cacheMu.Unlock()
	return regexAlgorithm{re: re}, nil
}

type fuzzyAlgorithm struct {
	pattern string
	maxDist int
	dmp     *diffmatchpatch.DiffMatchPatch
}

func (a fuzzyAlgorithm) Match(s string) bool {
	diffs := a.dmp.DiffMain(a.pattern, s, false)
	return a.dmp.DiffLevenshtein(diffs) <= a.maxDist
}

// NewFuzzy matches s within maxDist Levenshtein edits of pattern, backed
// by sergi/go-diff's edit-script length (spec: "Fuzzy(max_dist): Levenshtein
// distance ≤ max_dist").
func NewFuzzy(pattern string, maxDist int) Algorithm {
	return fuzzyAlgorithm{pattern: pattern, maxDist: maxDist, dmp: diffmatchpatch.New()}
}
