package catalog

import "strings"

type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenRequired
	TokenOptional
)

func (k TokenKind) String() string {
	switch k {
	case TokenRequired:
		return "required"
	case TokenOptional:
		return "optional"
	default:
		return "literal"
	}
}

// Token is one parsed template entry: <name>, [name] or a bare literal.
// Raw is the entry exactly as written in the catalog.
type Token struct {
	Kind TokenKind
	Name string
	Raw  string
}

func ParseToken(raw string) Token {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 {
		switch {
		case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
			return Token{Kind: TokenRequired, Name: strings.TrimSpace(s[1 : len(s)-1]), Raw: raw}
		case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
			return Token{Kind: TokenOptional, Name: strings.TrimSpace(s[1 : len(s)-1]), Raw: raw}
		}
	}
	return Token{Kind: TokenLiteral, Name: s, Raw: raw}
}

// Template parses every entry of a command's argument template.
func (c Command) Template() []Token {
	out := make([]Token, 0, len(c.Args))
	for _, raw := range c.Args {
		out = append(out, ParseToken(raw))
	}
	return out
}
