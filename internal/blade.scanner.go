package internal

import "strings"

// Directive is one @name(args): occurrence found while scanning literal text
type Directive struct {
	Name          string
	Args          string // Balanced argument group including the outer parentheses
	HasArgs       bool
	TrailingColon bool
	Escaped       bool // Written as @@name
	Unbalanced    bool // An argument group was opened but never closed
	Start         int  // Offset of the first sigil
	End           int  // Offset just past the match
}

// Text returns the matched source text
func (d Directive) Text(source string) string {
	return source[d.Start:d.End]
}

// Inner returns the argument text without the outer parentheses
func (d Directive) Inner() string {
	if !d.HasArgs || len(d.Args) < 2 {
		return ""
	}
	return strings.TrimSpace(d.Args[1 : len(d.Args)-1])
}

// Arguments splits the argument list on top-level commas
func (d Directive) Arguments() []string {
	return SplitArguments(d.Inner())
}

// NextDirective finds the next directive at or after from. A sigil glued to a
// preceding word character is text when its name is followed by a dot, so
// addresses such as user@php.net stay untouched.
func NextDirective(text string, from int) (Directive, bool) {
	i := from
	for i < len(text) {
		idx := strings.IndexByte(text[i:], CharSigil)
		if idx < 0 {
			return Directive{}, false
		}
		at := i + idx

		d := Directive{Start: at}
		nameStart := at + 1
		if nameStart < len(text) && text[nameStart] == CharSigil {
			d.Escaped = true
			nameStart++
		}
		nameEnd := nameStart
		for nameEnd < len(text) && isWordByte(text[nameEnd]) {
			nameEnd++
		}
		if nameEnd == nameStart {
			i = at + 1
			continue
		}
		if at > 0 && isWordByte(text[at-1]) && nameEnd < len(text) && text[nameEnd] == CharDot {
			i = nameEnd
			continue
		}
		d.Name = text[nameStart:nameEnd]

		k := nameEnd
		for k < len(text) && (text[k] == CharSpace || text[k] == CharTab) {
			k++
		}
		if k < len(text) && text[k] == CharOpenParen {
			closeIdx := MatchParen(text, k)
			if closeIdx < 0 {
				d.Unbalanced = true
				d.End = nameEnd
				return d, true
			}
			d.HasArgs = true
			d.Args = text[k : closeIdx+1]
			d.End = closeIdx + 1
			if d.End < len(text) && text[d.End] == CharColon {
				d.TrailingColon = true
				d.End++
			}
			return d, true
		}

		// no arguments: the run of spaces and tabs belongs to the directive
		d.End = k
		return d, true
	}
	return Directive{}, false
}

// MatchParen returns the offset of the parenthesis closing the one at open, or -1.
// Quoted strings are skipped so parentheses inside them do not count.
func MatchParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch ch := text[i]; ch {
		case CharOpenParen:
			depth++
		case CharCloseParen:
			depth--
			if depth == 0 {
				return i
			}
		case CharSingleQuote, CharDoubleQuote:
			end := skipQuoted(text, i)
			if end >= len(text) {
				return -1
			}
			i = end - 1
		}
	}
	return -1
}

// SplitArguments splits s on commas that are outside quotes and brackets
func SplitArguments(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case CharSingleQuote, CharDoubleQuote:
			i = skipQuoted(s, i) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case CharComma:
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

// Unquote returns the content of a single- or double-quoted literal
func Unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	quote := s[0]
	if (quote != CharSingleQuote && quote != CharDoubleQuote) || s[len(s)-1] != quote {
		return "", false
	}
	if skipQuoted(s, 0) != len(s) {
		return "", false
	}
	body := s[1 : len(s)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == CharBackslash && i+1 < len(body) && (body[i+1] == quote || body[i+1] == CharBackslash) {
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String(), true
}
