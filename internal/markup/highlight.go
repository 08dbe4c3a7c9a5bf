package markup

import (
	"slices"
	"strings"
	"unicode"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/lectern/internal/config"
)

// token is a run of highlighted code and the stylesheet section for it.
// Section is empty for text with no code style.
type token struct {
	Section string
	Text    string
}

// highlight splits code into tokens with the lexer for lang. Unknown
// languages come back as one plain token.
func highlight(lang, code string) []token {
	lexer := lexers.Get(lang)
	if lang == "" || lexer == nil {
		return []token{{Text: code}}
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return []token{{Text: code}}
	}
	var out []token
	for _, t := range it.Tokens() {
		sec := codeSection(t.Type)
		if n := len(out); n > 0 && out[n-1].Section == sec {
			out[n-1].Text += t.Value
			continue
		}
		out = append(out, token{Section: sec, Text: t.Value})
	}
	// Lexers add a final newline.
	if n := len(out); n > 0 && !strings.HasSuffix(code, "\n") {
		out[n-1].Text = strings.TrimSuffix(out[n-1].Text, "\n")
		if out[n-1].Text == "" {
			out = out[:n-1]
		}
	}
	return out
}

// codeSection maps a token type to the most specific code_* section:
// NameClass to code_name_class, else its category, LiteralString to
// code_literal.
func codeSection(tt chroma.TokenType) string {
	for _, t := range []chroma.TokenType{tt, tt.SubCategory(), tt.Category()} {
		if sec := "code_" + snake(t.String()); slices.Contains(config.CodeSections, sec) {
			return sec
		}
	}
	return ""
}

func snake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
