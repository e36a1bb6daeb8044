package internal

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// segment is a piece of compiled output. Code segments and frozen literals are
// final: later passes never rescan them.
type segment struct {
	text   string
	code   bool
	frozen bool
}

func literalSegment(text string) segment {
	return segment{text: text}
}

func codeSegment(text string) segment {
	return segment{text: text, code: true, frozen: true}
}

func joinSegments(segs []segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.text)
	}
	return sb.String()
}

// appendLiteral appends text, merging it into a trailing open literal
func appendLiteral(segs []segment, text string) []segment {
	if text == "" {
		return segs
	}
	if n := len(segs); n > 0 && !segs[n-1].code && !segs[n-1].frozen {
		segs[n-1].text += text
		return segs
	}
	return append(segs, literalSegment(text))
}

// CompileStatements expands the directives in a literal run of template text
func CompileStatements(c *CompilationContext, text string) (string, error) {
	c.source = text
	c.mapping = Buffer{}
	segs, err := compileStatementSegments(c, text, 0)
	if err != nil {
		return "", err
	}
	return joinSegments(segs), nil
}

// compileStatementSegments expands directives in text, which starts at offset base
// of the buffer being compiled.
func compileStatementSegments(c *CompilationContext, text string, base int) ([]segment, error) {
	c.Logger.Debug(LogMsgStatementsStart, zap.Int(LogFieldSource, len(text)))

	var segs []segment
	registry := c.Config.Directives
	pos := 0
	for {
		d, ok := NextDirective(text, pos)
		if !ok {
			break
		}
		segs = appendLiteral(segs, text[pos:d.Start])
		pos = d.End

		if d.Escaped {
			c.Logger.Debug(LogMsgDirectiveEscaped, zap.String(LogFieldDirective, d.Name))
			segs = appendLiteral(segs, text[d.Start+1:d.End])
			continue
		}

		if d.Name == DirectiveSection && d.TrailingColon {
			c.Logger.Debug(LogMsgDirectiveLayoutNoop, zap.String(LogFieldDirective, d.Name))
			continue
		}

		handler, known := registry.Lookup(d.Name)
		if !known {
			c.Logger.Debug(LogMsgDirectiveUnknown, zap.String(LogFieldDirective, d.Name))
			segs = appendLiteral(segs, d.Text(text))
			continue
		}

		if d.Unbalanced {
			return nil, c.errorAt(ErrorKindUnbalancedArguments, ErrMsgUnbalancedArguments, base+d.Start).
				WithDirective(d.Name)
		}

		if d.Name == DirectivePHP && !d.HasArgs {
			end, found := findRawBlockEnd(text, d.End)
			if !found {
				return nil, c.errorAt(ErrorKindUnterminatedBlock, ErrMsgUnterminatedRawBlock, base+d.Start).
					WithDirective(d.Name)
			}
			segs = append(segs, codeSegment(CodeOpen+text[d.End:end.Start]+CodeClose))
			pos = end.End
			continue
		}

		out, err := handler(c, d)
		if errors.Is(err, ErrPassThrough) {
			segs = appendLiteral(segs, d.Text(text))
			continue
		}
		if err != nil {
			return nil, c.locate(err, d, base)
		}
		if out != "" {
			segs = append(segs, codeSegment(out))
		}
		if d.TrailingColon {
			segs = appendLiteral(segs, string(CharColon))
		}
	}
	segs = appendLiteral(segs, text[pos:])

	c.Logger.Debug(LogMsgStatementsEnd, zap.Int(LogFieldTokens, len(segs)))
	return segs, nil
}

// findRawBlockEnd finds the @endphp closing a @php block opened before from
func findRawBlockEnd(text string, from int) (Directive, bool) {
	for {
		d, ok := NextDirective(text, from)
		if !ok {
			return Directive{}, false
		}
		if d.Name == DirectiveEndPHP && !d.Escaped {
			return d, true
		}
		from = d.End
	}
}

// locate attaches the directive position to handler errors that carry none
func (c *CompilationContext) locate(err error, d Directive, base int) error {
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Path != "" {
		return err
	}
	path, pos := c.sourcePosition(base + d.Start)
	ce.Path = c.displayPath(path)
	ce.Position = pos
	if ce.Directive == "" {
		ce.Directive = d.Name
	}
	return ce
}
