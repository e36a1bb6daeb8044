package internal

import (
	"fmt"
	"iter"
	"strings"
)

// TokenKind distinguishes host code from template markup
type TokenKind int

// Token kinds
const (
	TokenLiteral TokenKind = iota
	TokenCode
)

// Token kind names for debugging
const (
	TokenKindNameLiteral = "LITERAL"
	TokenKindNameCode    = "CODE"
)

// String returns the token kind name
func (k TokenKind) String() string {
	if k == TokenCode {
		return TokenKindNameCode
	}
	return TokenKindNameLiteral
}

// Token is one run of a template buffer: either host code that must pass through
// untouched, or literal markup that the statement and echo compilers may rewrite.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int // Byte offset of Text within the tokenized buffer
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	return fmt.Sprintf("Token{%s: %q @ %d}", t.Kind, t.Text, t.Offset)
}

// IsCode returns true if this token is a host code region
func (t Token) IsCode() bool {
	return t.Kind == TokenCode
}

// Tokenize splits buffer into alternating literal and code tokens. The sequence is
// lazy and restartable: every range over it rescans the buffer from the start.
// Concatenating the token texts reproduces buffer exactly.
func Tokenize(buffer string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		pos := 0
		for pos < len(buffer) {
			start := findCodeOpen(buffer, pos)
			if start < 0 {
				yield(Token{Kind: TokenLiteral, Text: buffer[pos:], Offset: pos})
				return
			}
			if start > pos {
				if !yield(Token{Kind: TokenLiteral, Text: buffer[pos:start], Offset: pos}) {
					return
				}
			}
			end := scanCodeRegion(buffer, start)
			if !yield(Token{Kind: TokenCode, Text: buffer[start:end], Offset: start}) {
				return
			}
			pos = end
		}
	}
}

// TokenizeAll collects the full token sequence
func TokenizeAll(buffer string) []Token {
	var tokens []Token
	for tok := range Tokenize(buffer) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// JoinTokens concatenates token texts in order
func JoinTokens(tokens []Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Text)
	}
	return sb.String()
}

// findCodeOpen returns the offset of the next code-open tag at or after pos, or -1.
func findCodeOpen(buffer string, pos int) int {
	for pos < len(buffer) {
		idx := strings.Index(buffer[pos:], "<?")
		if idx < 0 {
			return -1
		}
		at := pos + idx
		if codeOpenLen(buffer, at) > 0 {
			return at
		}
		pos = at + 2
	}
	return -1
}

// codeOpenLen returns the length of the code-open tag at i, or 0 if there is none.
// <?php must be followed by whitespace or end of buffer; <?xml and friends are markup.
func codeOpenLen(buffer string, i int) int {
	rest := buffer[i:]
	if strings.HasPrefix(rest, StrCodeOpenEcho) {
		return len(StrCodeOpenEcho)
	}
	if len(rest) < len(StrCodeOpen) || !strings.EqualFold(rest[:len(StrCodeOpen)], StrCodeOpen) {
		return 0
	}
	if len(rest) == len(StrCodeOpen) || isSpace(rest[len(StrCodeOpen)]) {
		return len(StrCodeOpen)
	}
	return 0
}

// scanCodeRegion returns the end offset of the code region starting at start.
// The close tag and one directly following line break belong to the region.
func scanCodeRegion(buffer string, start int) int {
	i := start + codeOpenLen(buffer, start)
	for i < len(buffer) {
		rest := buffer[i:]
		switch {
		case strings.HasPrefix(rest, StrCodeClose):
			end := i + len(StrCodeClose)
			if strings.HasPrefix(buffer[end:], StrCRLF) {
				end += len(StrCRLF)
			} else if strings.HasPrefix(buffer[end:], StrNewline) {
				end++
			}
			return end
		case rest[0] == CharSingleQuote || rest[0] == CharDoubleQuote || rest[0] == CharBacktick:
			i = skipQuoted(buffer, i)
		case strings.HasPrefix(rest, StrBlockComment):
			idx := strings.Index(buffer[i+len(StrBlockComment):], StrBlockEnd)
			if idx < 0 {
				return len(buffer)
			}
			i += len(StrBlockComment) + idx + len(StrBlockEnd)
		case strings.HasPrefix(rest, StrLineComment),
			rest[0] == CharHash && !(len(rest) > 1 && rest[1] == CharOpenBracket):
			i = skipLineComment(buffer, i)
		case strings.HasPrefix(rest, StrHeredocMarker):
			i = skipHeredoc(buffer, i)
		default:
			i++
		}
	}
	return len(buffer)
}

// skipQuoted skips a quoted host string starting at i, honoring backslash escapes.
func skipQuoted(buffer string, i int) int {
	quote := buffer[i]
	j := i + 1
	for j < len(buffer) {
		switch buffer[j] {
		case CharBackslash:
			j += 2
			continue
		case quote:
			return j + 1
		}
		j++
	}
	return len(buffer)
}

// skipLineComment stops at the end of the line or right before a close tag,
// which terminates code even inside a line comment.
func skipLineComment(buffer string, i int) int {
	for j := i; j < len(buffer); j++ {
		if buffer[j] == CharNewline {
			return j + 1
		}
		if strings.HasPrefix(buffer[j:], StrCodeClose) {
			return j
		}
	}
	return len(buffer)
}

// skipHeredoc skips a heredoc or nowdoc body. Malformed openers are skipped as plain text.
func skipHeredoc(buffer string, i int) int {
	j := i + len(StrHeredocMarker)
	for j < len(buffer) && (buffer[j] == CharSpace || buffer[j] == CharTab) {
		j++
	}
	var quote byte
	if j < len(buffer) && (buffer[j] == CharSingleQuote || buffer[j] == CharDoubleQuote) {
		quote = buffer[j]
		j++
	}
	identStart := j
	for j < len(buffer) && isIdentByte(buffer[j], j == identStart) {
		j++
	}
	ident := buffer[identStart:j]
	if ident == "" {
		return i + len(StrHeredocMarker)
	}
	if quote != 0 {
		if j >= len(buffer) || buffer[j] != quote {
			return i + len(StrHeredocMarker)
		}
		j++
	}
	if strings.HasPrefix(buffer[j:], StrCRLF) {
		j += len(StrCRLF)
	} else if strings.HasPrefix(buffer[j:], StrNewline) {
		j++
	} else {
		return i + len(StrHeredocMarker)
	}

	// The closing identifier may be indented and must not continue as a longer identifier.
	for lineStart := j; lineStart < len(buffer); {
		k := lineStart
		for k < len(buffer) && (buffer[k] == CharSpace || buffer[k] == CharTab) {
			k++
		}
		if strings.HasPrefix(buffer[k:], ident) {
			after := k + len(ident)
			if after >= len(buffer) || !isIdentByte(buffer[after], false) {
				return after
			}
		}
		nl := strings.IndexByte(buffer[lineStart:], CharNewline)
		if nl < 0 {
			break
		}
		lineStart += nl + 1
	}
	return len(buffer)
}

func isSpace(ch byte) bool {
	return ch == CharSpace || ch == CharTab || ch == CharNewline || ch == CharCarriageRet
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isWordByte reports whether ch belongs to a directive name
func isWordByte(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == CharUnderscore
}

func isIdentByte(ch byte, first bool) bool {
	if first {
		return isLetter(ch) || ch == CharUnderscore || ch >= 0x80
	}
	return isWordByte(ch) || ch >= 0x80
}
