package internal

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// defaultValuePattern matches `$var or default` where the left side is a plain
// variable reference with optional property and index access.
var defaultValuePattern = regexp.MustCompile(
	`(?s)^(\$[A-Za-z_][A-Za-z0-9_]*(?:->[A-Za-z_][A-Za-z0-9_]*|\[[^\]]*\])*)\s+[oO][rR]\s+(.+)$`,
)

// CompileEchoes rewrites the escaped and raw echo tags of a literal run
func CompileEchoes(c *CompilationContext, text string) string {
	return joinSegments(compileEchoSegments(c, []segment{literalSegment(text)}))
}

// StripComments removes template comments from a literal run
func StripComments(c *CompilationContext, text string) string {
	spans := commentSpans(c, text)
	if len(spans) == 0 {
		return text
	}
	var sb strings.Builder
	pos := 0
	for _, s := range spans {
		sb.WriteString(text[pos:s[0]])
		pos = s[1]
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

// commentSpans returns the [start, end) spans of the closed comments in text
func commentSpans(c *CompilationContext, text string) [][2]int {
	open, close := c.Tags().CommentDelimiters()
	var spans [][2]int
	pos := 0
	for {
		idx := strings.Index(text[pos:], open)
		if idx < 0 {
			return spans
		}
		start := pos + idx
		end := strings.Index(text[start+len(open):], close)
		if end < 0 {
			return spans
		}
		pos = start + len(open) + end + len(close)
		spans = append(spans, [2]int{start, pos})
	}
}

// compileEchoSegments runs one pass per echo kind, in the configured order, over
// the segments that are still open literal text.
func compileEchoSegments(c *CompilationContext, segs []segment) []segment {
	c.Logger.Debug(LogMsgEchoesStart, zap.Int(LogFieldTokens, len(segs)))
	for _, kind := range c.Tags().EchoOrder() {
		open, close := c.Tags().Delimiters(kind)
		next := make([]segment, 0, len(segs))
		for _, s := range segs {
			if s.code || s.frozen || !strings.Contains(s.text, open) {
				next = append(next, s)
				continue
			}
			next = append(next, compileEchoKind(c, s.text, kind, open, close)...)
		}
		segs = next
	}
	c.Logger.Debug(LogMsgEchoesEnd, zap.Int(LogFieldTokens, len(segs)))
	return segs
}

func compileEchoKind(c *CompilationContext, text string, kind EchoKind, open, close string) []segment {
	var segs []segment
	pos := 0
	for pos < len(text) {
		idx := strings.Index(text[pos:], open)
		if idx < 0 {
			break
		}
		at := pos + idx
		innerStart := at + len(open)
		closeIdx := strings.Index(text[innerStart:], close)
		if closeIdx < 0 {
			break
		}
		innerEnd := innerStart + closeIdx
		end := innerEnd + len(close)

		// @{{ ... }} is emitted as the bare tag and shielded from the other pass
		if at > pos && text[at-1] == CharSigil {
			segs = appendLiteral(segs, text[pos:at-1])
			segs = append(segs, segment{text: text[at:end], frozen: true})
			pos = end
			continue
		}

		expr := strings.TrimSpace(text[innerStart:innerEnd])
		if expr == "" {
			segs = appendLiteral(segs, text[pos:end])
			pos = end
			continue
		}

		segs = appendLiteral(segs, text[pos:at])

		// the host swallows one line break after a close tag, so a line break
		// following the echo is written twice
		lineBreak := ""
		if strings.HasPrefix(text[end:], StrCRLF) {
			lineBreak = StrCRLF
		} else if strings.HasPrefix(text[end:], StrNewline) {
			lineBreak = StrNewline
		}
		segs = append(segs, codeSegment(renderEcho(c, kind, expr)+lineBreak))
		segs = appendLiteral(segs, lineBreak)
		pos = end + len(lineBreak)
	}
	return appendLiteral(segs, text[pos:])
}

// renderEcho builds the output statement for one echo expression
func renderEcho(c *CompilationContext, kind EchoKind, expr string) string {
	expr = RewriteDefault(expr)
	if kind == EchoRaw {
		return fmt.Sprintf(CodeEchoRawFmt, expr)
	}
	return fmt.Sprintf(CodeEchoEscapedFmt, c.EscapeFunction(), expr)
}

// RewriteDefault turns `$var or default` into an isset conditional. Other
// expressions are returned unchanged.
func RewriteDefault(expr string) string {
	m := defaultValuePattern.FindStringSubmatch(expr)
	if m == nil {
		return expr
	}
	return fmt.Sprintf(CodeIssetDefaultFmt, m[1], strings.TrimSpace(m[2]))
}
