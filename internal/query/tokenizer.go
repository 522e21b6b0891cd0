package query

import "strings"

// TokenKind classifies one token of the compiler's input stream (spec
// §4.H): logical, pipe, option, field selector, algorithm, or a literal
// pattern argument.
type TokenKind int

const (
	TokLiteral TokenKind = iota
	TokAnd
	TokOr
	TokNot
	TokLParen
	TokRParen
	TokPipe
	TokOptionInstalled    // I: restrict to installed versions
	TokOptionOverlay      // O: restrict to versions from a non-primary overlay
	TokOptionObsolete     // T: redundancy/obsoleteness check
	TokOptionIgnoreCase   // i: fold case before matching
	TokFieldName          // s
	TokFieldCategory      // C
	TokFieldCategoryName  // A
	TokFieldDescription   // S
	TokFieldHomepage      // H
	TokFieldLicense       // L
	TokFieldIUse          // U
	TokFieldSlot          // y
	TokFieldDepend        // d
	TokFieldDeps          // D (union of DEPEND/RDEPEND/PDEPEND)
	TokFieldSet           // Z (package-set membership)
	TokAlgExact           // e
	TokAlgBegin           // b
	TokAlgEnd             // f
	TokAlgSubstring       // c (contains)
	TokAlgPattern         // p
	TokAlgRegex           // r
	TokAlgFuzzy           // z
)

// Token is one lexed unit of the query token stream.
type Token struct {
	Kind    TokenKind
	Literal string // set only for TokLiteral
}

// tokenTable maps each single-character token spelling to its kind. It is
// this module's own vocabulary for the abstract token categories spec
// §4.H enumerates (logical/pipe/option/field/algorithm); see DESIGN.md
// for the mapping rationale.
var tokenTable = map[string]TokenKind{
	"a": TokAnd, "o": TokOr, "!": TokNot, "(": TokLParen, ")": TokRParen,
	"|": TokPipe,
	"I": TokOptionInstalled, "O": TokOptionOverlay, "T": TokOptionObsolete, "i": TokOptionIgnoreCase,
	"s": TokFieldName, "C": TokFieldCategory, "A": TokFieldCategoryName,
	"S": TokFieldDescription, "H": TokFieldHomepage, "L": TokFieldLicense,
	"U": TokFieldIUse, "y": TokFieldSlot,
	"d": TokFieldDepend, "D": TokFieldDeps, "Z": TokFieldSet,
	"e": TokAlgExact, "b": TokAlgBegin, "f": TokAlgEnd, "c": TokAlgSubstring,
	"p": TokAlgPattern, "r": TokAlgRegex, "z": TokAlgFuzzy,
}

// Tokenize splits args (already whitespace-separated, e.g. os.Args) into
// Tokens: a recognized single-character spelling becomes its structural
// token; anything else is a literal pattern argument.
func Tokenize(args []string) []Token {
	out := make([]Token, 0, len(args))
	for _, a := range args {
		if kind, ok := tokenTable[a]; ok {
			out = append(out, Token{Kind: kind})
			continue
		}
		out = append(out, Token{Kind: TokLiteral, Literal: a})
	}
	return out
}

// isCategoryNameWord reports whether w looks like a bare "category/name"
// token (spec §4.H pipe mode: "exactly one '/', non-empty sides, optional
// '=' prefix and trailing '-version'").
func isCategoryNameWord(w string) (category, name, ver string, ok bool) {
	w = strings.TrimPrefix(w, "=")
	slash := strings.IndexByte(w, '/')
	if slash <= 0 || slash == len(w)-1 {
		return "", "", "", false
	}
	category = w[:slash]
	rest := w[slash+1:]
	if strings.ContainsRune(rest, '/') {
		return "", "", "", false
	}
	if n, v, found := splitTrailingVersion(rest); found {
		return category, n, v, true
	}
	return category, rest, "", true
}

func splitTrailingVersion(s string) (name, ver string, ok bool) {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] != '-' {
			continue
		}
		if i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
