// Package userconfig resolves per-package user overrides (package.keywords,
// package.mask/unmask, package.use) against a version's own metadata to
// produce the keyword-stability and mask classifications the evaluator
// needs, plus the redundancy diagnostics eix reports for useless entries
// (spec §4.G).
package userconfig

import "github.com/eix-go/eix/internal/mask"

// ResolveResult is the outcome of resolving a plus/minus token stream
// (package.keywords / ACCEPT_KEYWORDS-style lines) into an accumulator.
type ResolveResult struct {
	Set mask.KeywordsFlags // MinusAsterisk set iff a bare "-*" token cleared the set

	// Tokens is the resolved set of accepted architecture tokens (plain
	// names, or "*"/"~*"/"**"), in the form they'd be looked up with.
	Tokens map[string]bool

	// Duplicates holds every token that was added more than once, for the
	// DOUBLE redundancy check.
	Duplicates map[string]bool
}

// ResolvePlusMinus processes tokens left to right (spec §4.G):
//   - "-*" clears the accumulator and flags MinusAsterisk.
//   - "-t" removes t; if t was already absent it flags MinusKeyword.
//   - "t" adds t; a repeat add is recorded in Duplicates.
func ResolvePlusMinus(tokens []string) ResolveResult {
	set := make(map[string]bool)
	dup := make(map[string]bool)
	var flags mask.KeywordsFlags

	for _, tok := range tokens {
		switch {
		case tok == "-*":
			set = make(map[string]bool)
			flags |= mask.MinusAsterisk
		case len(tok) > 0 && tok[0] == '-':
			name := tok[1:]
			if !set[name] {
				flags |= mask.MinusKeyword
			}
			delete(set, name)
		case tok != "":
			if set[tok] {
				dup[tok] = true
			}
			set[tok] = true
		}
	}
	return ResolveResult{Set: flags, Tokens: set, Duplicates: dup}
}

// Classification ranks how strongly an accept token matched a version's
// KEYWORDS. Ordering is significant: the evaluator takes the maximum
// across every effective token when computing WEAKER (spec §4.G).
type Classification int

const (
	ClassNothing Classification = iota
	ClassStable
	ClassUnstable
	ClassAlienStable
	ClassAlienUnstable
	ClassEverything
	ClassMinusAsterisk
)

func (c Classification) String() string {
	switch c {
	case ClassStable:
		return "STABLE"
	case ClassUnstable:
		return "UNSTABLE"
	case ClassAlienStable:
		return "ALIENSTABLE"
	case ClassAlienUnstable:
		return "ALIENUNSTABLE"
	case ClassEverything:
		return "EVERYTHING"
	case ClassMinusAsterisk:
		return "MINUSASTERISK"
	default:
		return "NOTHING"
	}
}

// anyPlain reports whether K has any entry with neither a "~" nor a "-"
// prefix (a stable keyword).
func anyPlain(k map[string]bool) bool {
	for kw := range k {
		if len(kw) > 0 && kw[0] != '~' && kw[0] != '-' {
			return true
		}
	}
	return false
}

// anyTilde reports whether K has any "~"-prefixed (testing) entry.
func anyTilde(k map[string]bool) bool {
	for kw := range k {
		if len(kw) > 0 && kw[0] == '~' {
			return true
		}
	}
	return false
}

// ApplyKeyword classifies a single effective accept token t against a
// version's KEYWORDS set k and the local architecture set archSet (spec
// §4.G, mirroring apply_keyword() in
// original_source/src/portage/conf/portagesettings.cc:484-587). The second
// return reports whether t matched neither k nor archSet under any sign —
// the STRANGE redundancy diagnostic.
//
// t carries its own sign: "amd64" is a stable accept, "~amd64" an unstable
// accept, "-amd64" a negative accept. The lookup against k is always on the
// literal token t, not a reconstructed bare-plus-sign variant — looking up
// k[t] for t == "~amd64" is not the same thing as looking up k["amd64"].
func ApplyKeyword(t string, k, archSet map[string]bool) (Classification, bool) {
	switch t {
	case "**":
		return ClassEverything, false
	case "*":
		if anyPlain(k) {
			return ClassAlienStable, false
		}
		return ClassNothing, false
	case "~*":
		if anyTilde(k) {
			return ClassAlienUnstable, false
		}
		return ClassNothing, false
	}

	if k[t] {
		switch {
		case t[0] == '~':
			if archSet[t] || archSet[t[1:]] {
				return ClassUnstable, false
			}
			return ClassAlienUnstable, false
		case t[0] == '-':
			return ClassMinusAsterisk, false
		default:
			if archSet[t] || archSet["~"+t] {
				return ClassStable, false
			}
			return ClassAlienStable, false
		}
	}

	// Not found under t itself: check whether the "blank" keyword (t with
	// any leading ~/- stripped) is known to arch_set or k under any sign.
	// If so the token simply didn't apply here, silently. If not, t named
	// something arch_set and k have never heard of — STRANGE.
	bare := t
	if len(t) > 0 && (t[0] == '~' || t[0] == '-') {
		bare = t[1:]
	}
	if archSet[bare] || archSet["~"+bare] || archSet["-"+bare] {
		return ClassNothing, false
	}
	if k[bare] || k["~"+bare] || k["-"+bare] {
		return ClassNothing, false
	}
	return ClassNothing, true
}

// Stability is the full result of evaluating one version's effective
// accept-keyword set against its KEYWORDS (spec §4.G).
type Stability struct {
	Stable    bool
	Strange   bool
	Weaker    bool
	Mixed     bool
	Strongest Classification
}

// EvaluateStability resolves effective (the accept set after merging the
// global ACCEPT_KEYWORDS/ARCH tokens with any per-package user override)
// against k and archSet, producing the classification the evaluator stamps
// on the version. The "needed" classification WEAKER and MIXED compare
// against is derived from K alone (spec §4.G: "the needed classification
// derived from K alone"): ALIENSTABLE if K has any plain keyword,
// ALIENUNSTABLE if K has only tilde keywords, else NOTHING.
func EvaluateStability(effective, k, archSet map[string]bool) Stability {
	var st Stability

	best := ClassNothing
	strange := false
	for t := range effective {
		c, s := ApplyKeyword(t, k, archSet)
		if c > best {
			best = c
		}
		strange = strange || s
	}
	st.Strongest = best
	st.Strange = strange
	st.Stable = best != ClassNothing

	needed := ClassNothing
	switch {
	case anyPlain(k):
		needed = ClassAlienStable
	case anyTilde(k):
		needed = ClassAlienUnstable
	}
	st.Weaker = st.Stable && best < needed
	st.Mixed = st.Stable && needed != ClassNothing

	return st
}
