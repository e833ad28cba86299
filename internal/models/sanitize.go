package models

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// formattingTags are the inline tags hh.ru wraps around text, e.g. search highlights
var formattingTags = map[atom.Atom]bool{
	atom.B:      true,
	atom.I:      true,
	atom.Em:     true,
	atom.Strong: true,
	atom.Span:   true,
}

const highlightTag = "highlighttext"

// textOr drops formatting tags, decodes entities and collapses whitespace. Anything
// else that looks like markup, e.g. "<C++>", is kept verbatim. An empty result yields def.
func textOr(s, def string) string {
	if clean := sanitizeText(s); clean != "" {
		return clean
	}
	return def
}

// urlOr only trims: tokenizing a URL would decode "&..." query parameters as entities.
func urlOr(s string) string {
	if clean := strings.TrimSpace(s); clean != "" {
		return clean
	}
	return PlaceholderURL
}

func sanitizeText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	consumed := 0
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// EOF, possibly inside an unterminated tag the tokenizer swallowed
			b.WriteString(s[min(consumed, len(s)):])
			return strings.Join(strings.Fields(b.String()), " ")
		}
		// copied: TagName and Text rewrite the tokenizer's buffer in place
		raw := string(z.Raw())
		consumed += len(raw)

		switch tt {
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Br {
				b.WriteByte(' ')
				continue
			}
			if formattingTags[a] || string(name) == highlightTag {
				continue
			}
			b.WriteString(raw)
		default:
			b.WriteString(raw)
		}
	}
}
