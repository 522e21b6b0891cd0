package userconfig

import (
	"strings"

	"github.com/eix-go/eix/internal/mask"
	"github.com/eix-go/eix/internal/tree"
)

// Policy bundles the architecture/accepted-keywords sets portagesettings
// derives from ARCH/ACCEPT_KEYWORDS with the per-package overrides read
// from /etc/portage (package.mask/unmask/keywords/accept_keywords), and
// applies both to a candidate package's versions. This is the evaluator's
// per-leaf policy step (spec §4.I step 3: "For each leaf test that needs
// policy, the policy layer is invoked to annotate versions").
type Policy struct {
	// ArchSet and GlobalAccept come from portagesettings.Settings: the
	// resolved ARCH set, and the raw ARCH+ACCEPT_KEYWORDS token list (A,
	// spec §4.G) before any per-package override is folded in.
	ArchSet      map[string]bool
	GlobalAccept []string

	// Masks/Unmasks/Keywords/AcceptKeywords are /etc/portage's
	// package.mask, package.unmask, package.keywords, and
	// package.accept_keywords, already resolved into mask.Lists.
	Masks, Unmasks           *mask.List
	Keywords, AcceptKeywords *mask.List

	// Requested controls which RED_* bits KeywordRedundancy computes for
	// each version (spec §4.G: "compute only those").
	Requested mask.Redundant
}

// Annotate stamps every version of pkg with its keyword stability,
// redundancy diagnostics, and user mask/unmask disposition, short-
// circuiting via the saved-slot arrays when a prior leaf in this run
// already did the work (spec §9).
func (p *Policy) Annotate(pkg *tree.Package) {
	p.applyUserMasks(pkg)
	for _, v := range pkg.Versions {
		p.applyKeywords(pkg, v)
	}
}

func (p *Policy) applyUserMasks(pkg *tree.Package) {
	need := false
	for _, v := range pkg.Versions {
		if _, ok := v.RestoreMaskflags(mask.SlotUserProfile); !ok {
			need = true
			break
		}
	}
	if !need {
		return
	}
	if p.Masks != nil {
		tree.ApplyMasks(pkg, p.Masks)
	}
	if p.Unmasks != nil {
		tree.ApplyMasks(pkg, p.Unmasks)
	}
	for _, v := range pkg.Versions {
		v.SaveMaskflags(mask.SlotUserProfile, v.MaskFlags)
	}
}

func (p *Policy) applyKeywords(pkg *tree.Package, v *tree.ExtendedVersion) {
	if flags, ok := v.RestoreKeyflags(mask.SlotUser); ok {
		v.KeywordFlags = flags
		return
	}

	k := fieldSet(v.FullKeywords)
	u := p.userAcceptTokens(pkg, v)

	tokens := make([]string, 0, len(p.GlobalAccept)+len(u))
	tokens = append(tokens, p.GlobalAccept...)
	tokens = append(tokens, u...)
	resolved := ResolvePlusMinus(tokens)

	st := EvaluateStability(resolved.Tokens, k, p.ArchSet)
	v.Redundant |= KeywordRedundancy(p.Requested, st, resolved, len(u) > 0)

	var flags mask.KeywordsFlags
	if st.Stable {
		flags |= mask.Stable
	}
	switch st.Strongest {
	case ClassUnstable:
		flags |= mask.ArchUnstable
	case ClassAlienStable:
		flags |= mask.AlienStable
	case ClassAlienUnstable:
		flags |= mask.AlienUnstable
	}
	if anyPlain(k) {
		flags |= mask.SomeStable
	}
	if anyTilde(k) {
		flags |= mask.TildeStarMatch
	}
	flags |= resolved.Set // carries MinusKeyword/MinusAsterisk, if set

	v.KeywordFlags = flags
	v.SaveKeyflags(mask.SlotUser, flags)
}

// userAcceptTokens collects U for v (§4.G): the tokens the cascading
// profile already put on v, then the package.keywords/package.accept_keywords
// tokens from /etc/portage that apply to v, atom- and slot-matched, in
// file order.
func (p *Policy) userAcceptTokens(pkg *tree.Package, v *tree.ExtendedVersion) []string {
	var toks []string
	toks = append(toks, v.AcceptKeywordTokens...) // U contributed by the cascading profile
	for _, l := range []*mask.List{p.Keywords, p.AcceptKeywords} {
		if l == nil {
			continue
		}
		for _, m := range l.Get(pkg.Category, pkg.Name) {
			if m.Matches(v.Version, v.Slot) {
				toks = append(toks, m.Tokens...)
			}
		}
	}
	return toks
}

// fieldSet splits a space-separated KEYWORDS string into a lookup set.
func fieldSet(s string) map[string]bool {
	fields := strings.Fields(s)
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
