package userconfig

import "github.com/eix-go/eix/internal/mask"

// Request is the set of RED_* diagnostics a caller asked for; only bits
// present here are computed (spec §4.G: "observe which bits were
// requested... compute only those").
type Request = mask.Redundant

// KeywordRedundancy computes the RED_IN_KEYWORDS/RED_DOUBLE/RED_WEAKER/
// RED_MIXED/RED_STRANGE/RED_MINUSASTERISK bits for one version, given the
// already-resolved Stability and ResolveResult the effective accept set
// produced.
func KeywordRedundancy(requested Request, st Stability, resolved ResolveResult, userProvidedAnyToken bool) mask.Redundant {
	var red mask.Redundant

	if requested.Has(mask.RedInKeywords) && userProvidedAnyToken {
		red |= mask.RedInKeywords
	}
	if requested.Has(mask.RedWeaker) && st.Weaker {
		red |= mask.RedWeaker
	}
	if requested.Has(mask.RedMixed) && st.Mixed {
		red |= mask.RedMixed
	}
	if requested.Has(mask.RedStrange) && st.Strange {
		red |= mask.RedStrange
	}
	if requested.Has(mask.RedMinusAsterisk) && resolved.Set.Has(mask.MinusAsterisk) {
		red |= mask.RedMinusAsterisk
	}
	if requested.Has(mask.RedDouble) && len(resolved.Duplicates) > 0 {
		// TODO: the spec (and the original eix source it mirrors) is
		// ambiguous about whether a duplicate *within one user-keywords
		// line* should set DOUBLE or the line-granular DOUBLE_LINE bit
		// when the repeated atom carries different tokens across
		// multiple lines for the same package. We set DOUBLE here for
		// any repeat and leave DOUBLE_LINE to the caller, who has the
		// per-line view this function does not.
		red |= mask.RedDouble
	}

	return red
}
