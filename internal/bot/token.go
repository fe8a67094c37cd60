package bot

import (
	"strings"

	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
)

// tokenDelimiter matches inventory.ReservedDelimiter; names are rejected
// at creation and barcodes at scan intake when they contain it, so a plain
// split stays unambiguous.
const tokenDelimiter = ":"

// Token families. Every callback token is "family:action" or
// "family:action:args...".
const (
	familyMenu     = "menu"
	familyPantry   = "pantry"
	familyCategory = "cat"
	familyScan     = "scancat"
	familyReview   = "rev"
)

// Token is a decoded callback payload. Tokens are decoded exactly once, at
// the dispatch boundary.
type Token struct {
	Family string
	Action string
	Args   []string
}

// EncodeToken builds the wire form of a callback token.
func EncodeToken(family, action string, args ...string) string {
	parts := append([]string{family, action}, args...)
	return strings.Join(parts, tokenDelimiter)
}

// DecodeToken parses the wire form. Family and action are mandatory except
// for single-segment tokens, which carry only a family.
func DecodeToken(raw string) (Token, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Token{}, pkgerrors.New(pkgerrors.CodeValidation, "empty callback token")
	}
	parts := strings.Split(trimmed, tokenDelimiter)
	token := Token{Family: parts[0]}
	if token.Family == "" {
		return Token{}, pkgerrors.New(pkgerrors.CodeValidation, "malformed callback token")
	}
	if len(parts) > 1 {
		token.Action = parts[1]
	}
	if len(parts) > 2 {
		token.Args = parts[2:]
	}
	return token, nil
}

// Arg returns the i-th token argument or "".
func (t Token) Arg(i int) string {
	if i < 0 || i >= len(t.Args) {
		return ""
	}
	return t.Args[i]
}
