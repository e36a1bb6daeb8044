package internal

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

// CompileFile runs the whole pipeline for the template stored at c.Path
func CompileFile(c *CompilationContext) (string, error) {
	c.Logger.Debug(LogMsgPipelineStart,
		zap.String(LogFieldPath, c.Path),
		zap.String(LogFieldTemplateName, c.DisplayName))

	layout, err := Assemble(c, c.Path)
	if err != nil {
		return "", err
	}
	return compileLayout(c, layout)
}

// CompileSource runs the whole pipeline for in-memory source. Layouts and
// includes it references are still resolved through the loader.
func CompileSource(c *CompilationContext, source string) (string, error) {
	c.Logger.Debug(LogMsgPipelineStart,
		zap.String(LogFieldPath, c.Path),
		zap.String(LogFieldTemplateName, c.DisplayName),
		zap.Int(LogFieldSource, len(source)))

	if err := c.Context.Err(); err != nil {
		return "", err
	}
	layout, err := AssembleSource(c, c.Path, source)
	if err != nil {
		return "", err
	}
	return compileLayout(c, layout)
}

func compileLayout(c *CompilationContext, layout *Layout) (string, error) {
	out, err := CompileBuffer(c, Flatten(c, layout))
	if err != nil {
		return "", err
	}
	c.Logger.Debug(LogMsgPipelineEnd,
		zap.String(LogFieldTemplateName, c.DisplayName),
		zap.Int(LogFieldOutput, len(out)))
	return out, nil
}

// CompileBuffer compiles the literal runs of an assembled buffer. Code regions
// are copied through byte for byte. Errors point into the template that
// contributed the offending text.
func CompileBuffer(c *CompilationContext, buf Buffer) (string, error) {
	c.source = buf.Text
	c.mapping = buf
	c.Logger.Debug(LogMsgTokenizerStart, zap.Int(LogFieldSource, len(buf.Text)))

	var (
		sb     strings.Builder
		tokens int
	)
	for tok := range Tokenize(buf.Text) {
		tokens++
		if tok.IsCode() {
			sb.WriteString(tok.Text)
			continue
		}
		segs, err := compileLiteral(c, tok)
		if err != nil {
			return "", err
		}
		sb.WriteString(joinSegments(segs))
	}

	c.Logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, tokens))
	return sb.String(), nil
}

// compileLiteral strips comments, then expands directives and finally echoes.
// Directive output is final and never reaches the echo passes.
func compileLiteral(c *CompilationContext, tok Token) ([]segment, error) {
	var segs []segment
	pos := 0
	pieces := append(commentSpans(c, tok.Text), [2]int{len(tok.Text), len(tok.Text)})
	for _, span := range pieces {
		if span[0] > pos {
			compiled, err := compileStatementSegments(c, tok.Text[pos:span[0]], tok.Offset+pos)
			if err != nil {
				return nil, err
			}
			for _, s := range compiled {
				if s.code || s.frozen {
					segs = append(segs, s)
					continue
				}
				segs = appendLiteral(segs, s.text)
			}
		}
		pos = span[1]
	}
	return compileEchoSegments(c, segs), nil
}

// Include compiles the named template with its own layout chain and returns
// the output to inline. It shares the flag sequence of c because both end up in
// one host scope.
func (c *CompilationContext) Include(name string) (string, error) {
	if c.Config.Loader == nil {
		return "", NewCompileError(ErrorKindLoaderUnavailable, ErrMsgLoaderUnavailable).
			WithDirective(DirectiveInclude)
	}
	if err := c.Context.Err(); err != nil {
		return "", err
	}
	path, err := c.Config.Loader.ResolvePath(c.Context, name)
	if err != nil {
		return "", err
	}
	if slices.Contains(c.includePaths, path) {
		return "", NewCompileError(ErrorKindIncludeCycle, ErrMsgIncludeCycle).
			WithDirective(DirectiveInclude).
			WithChain(append(slices.Clone(c.includeNames), name))
	}
	if len(c.includePaths) >= c.Config.MaxDepth {
		return "", NewCompileError(ErrorKindDepthExceeded, ErrMsgDepthExceeded).
			WithDirective(DirectiveInclude).
			WithChain(slices.Clone(c.includeNames))
	}

	c.Logger.Debug(LogMsgIncludeStart,
		zap.String(LogFieldTemplateName, name),
		zap.String(LogFieldPath, path),
		zap.Int(LogFieldDepth, len(c.includePaths)))

	out, err := CompileFile(c.child(path, name))
	if err != nil {
		return "", err
	}

	c.Logger.Debug(LogMsgIncludeEnd,
		zap.String(LogFieldPath, path),
		zap.Int(LogFieldOutput, len(out)))
	return out, nil
}
