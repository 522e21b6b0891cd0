package userconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eix-go/eix/internal/mask"
)

func TestResolvePlusMinusBasic(t *testing.T) {
	r := ResolvePlusMinus([]string{"amd64", "~x86", "amd64"})
	assert.True(t, r.Tokens["amd64"])
	assert.True(t, r.Tokens["~x86"])
	assert.True(t, r.Duplicates["amd64"])
	assert.False(t, r.Set.Has(mask.MinusAsterisk))
}

func TestResolvePlusMinusMinusStar(t *testing.T) {
	r := ResolvePlusMinus([]string{"amd64", "-*", "x86"})
	assert.False(t, r.Tokens["amd64"])
	assert.True(t, r.Tokens["x86"])
	assert.True(t, r.Set.Has(mask.MinusAsterisk))
}

func TestResolvePlusMinusRemoveAbsent(t *testing.T) {
	r := ResolvePlusMinus([]string{"-amd64"})
	assert.False(t, r.Tokens["amd64"])
	assert.True(t, r.Set.Has(mask.MinusKeyword))
}

func TestApplyKeywordPlainStableVsAlien(t *testing.T) {
	k := map[string]bool{"amd64": true}
	archSet := map[string]bool{"amd64": true}
	c, strange := ApplyKeyword("amd64", k, archSet)
	assert.Equal(t, ClassStable, c)
	assert.False(t, strange)

	c, strange = ApplyKeyword("amd64", k, map[string]bool{"x86": true})
	assert.Equal(t, ClassAlienStable, c)
	assert.False(t, strange)
}

func TestApplyKeywordTildeAcceptToken(t *testing.T) {
	// The accept token itself carries the "~", e.g. ACCEPT_KEYWORDS="~amd64".
	// This must land in the UNSTABLE/ALIENUNSTABLE branch, not be looked up
	// as if it were the bare arch name "amd64".
	k := map[string]bool{"~amd64": true}
	c, _ := ApplyKeyword("~amd64", k, map[string]bool{"amd64": true})
	assert.Equal(t, ClassUnstable, c)

	c, _ = ApplyKeyword("~amd64", k, map[string]bool{"x86": true})
	assert.Equal(t, ClassAlienUnstable, c)
}

func TestApplyKeywordStableAcceptDoesNotMatchUnstableOnlyKeywords(t *testing.T) {
	// A plain accept token ("amd64") must not be satisfied by a version
	// that only declares the tilde (testing) keyword.
	k := map[string]bool{"~amd64": true}
	c, strange := ApplyKeyword("amd64", k, map[string]bool{"amd64": true})
	assert.Equal(t, ClassNothing, c)
	assert.False(t, strange)
}

func TestApplyKeywordMinusPrefixInKeywords(t *testing.T) {
	k := map[string]bool{"-mips": true}
	c, _ := ApplyKeyword("-mips", k, map[string]bool{"mips": true})
	assert.Equal(t, ClassMinusAsterisk, c)
}

func TestApplyKeywordWildcards(t *testing.T) {
	c, _ := ApplyKeyword("**", nil, nil)
	assert.Equal(t, ClassEverything, c)

	c, _ = ApplyKeyword("*", map[string]bool{"amd64": true}, nil)
	assert.Equal(t, ClassAlienStable, c)

	c, _ = ApplyKeyword("*", map[string]bool{"~amd64": true}, nil)
	assert.Equal(t, ClassNothing, c)

	c, _ = ApplyKeyword("~*", map[string]bool{"~amd64": true}, nil)
	assert.Equal(t, ClassAlienUnstable, c)
}

func TestApplyKeywordStrange(t *testing.T) {
	_, strange := ApplyKeyword("sparc", map[string]bool{"amd64": true}, map[string]bool{"amd64": true})
	assert.True(t, strange)
}

func TestEvaluateStabilityWeakerAndMixed(t *testing.T) {
	// K declares only the tilde (testing) keyword; the user's
	// accept_keywords line accepts that exact token. Without a matching
	// entry in the local arch set, apply_keyword classifies it
	// ALIENUNSTABLE — exactly what K alone (tilde-only) needs, so this is
	// stable but not WEAKER.
	kTildeOnly := map[string]bool{"~amd64": true}
	st := EvaluateStability(map[string]bool{"~amd64": true}, kTildeOnly, map[string]bool{})
	assert.True(t, st.Stable)
	assert.Equal(t, ClassAlienUnstable, st.Strongest)
	assert.False(t, st.Weaker)

	// K has a plain stable keyword (needed == ALIENSTABLE); the user's
	// accept set resolves to the matching plain token: both classify the
	// version stable, so MIXED is set.
	kStable := map[string]bool{"amd64": true}
	archSet := map[string]bool{"amd64": true}
	stMixed := EvaluateStability(map[string]bool{"amd64": true}, kStable, archSet)
	assert.True(t, stMixed.Mixed)

	// K carries both the plain and tilde keyword (needed == ALIENSTABLE,
	// since a plain entry is present); the user only accepted the tilde
	// variant, landing on the weaker UNSTABLE classification.
	kBoth := map[string]bool{"amd64": true, "~amd64": true}
	stWeaker := EvaluateStability(map[string]bool{"~amd64": true}, kBoth, archSet)
	assert.True(t, stWeaker.Weaker)
}
