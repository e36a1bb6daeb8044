package internal

import "go.uber.org/zap"

// Layout is a template merged into its layout chain. It keeps the section
// structure of the chain until Flatten renders it.
type Layout struct {
	parts []*layoutPart
}

// Assemble loads the template at path and merges it into its layout chain
func Assemble(c *CompilationContext, path string) (*Layout, error) {
	return assemble(c, path, c.displayPath(path))
}

func assemble(c *CompilationContext, path, name string) (*Layout, error) {
	if err := c.Context.Err(); err != nil {
		return nil, err
	}
	if c.Config.Loader == nil {
		return nil, NewCompileError(ErrorKindLoaderUnavailable, ErrMsgLoaderUnavailable).
			WithPath(c.displayPath(path))
	}
	source, err := c.Config.Loader.LoadSource(c.Context, path)
	if err != nil {
		return nil, err
	}
	return assembleSource(c, path, name, source)
}

// AssembleSource merges source, stored at path, into its layout chain. A source
// without @extends is a root layout.
func AssembleSource(c *CompilationContext, path, source string) (*Layout, error) {
	return assembleSource(c, path, c.displayPath(path), source)
}

func assembleSource(c *CompilationContext, path, name, source string) (*Layout, error) {
	if err := c.enterExtends(path, name); err != nil {
		return nil, err
	}
	defer c.leaveExtends()
	c.sources[path] = source

	c.Logger.Debug(LogMsgAssembleStart,
		zap.String(LogFieldPath, path),
		zap.Int(LogFieldDepth, len(c.extendsPaths)))

	parentName, found, err := findExtends(c, path, source)
	if err != nil {
		return nil, err
	}
	parts, err := parseLayout(c, path, source)
	if err != nil {
		return nil, err
	}
	if !found {
		c.Logger.Debug(LogMsgAssembleTerminal, zap.String(LogFieldPath, path))
		return &Layout{parts: parts}, nil
	}
	if c.Config.Loader == nil {
		return nil, NewCompileError(ErrorKindLoaderUnavailable, ErrMsgLoaderUnavailable).
			WithPath(c.displayPath(path)).
			WithDirective(DirectiveExtends)
	}

	parentPath, err := c.Config.Loader.ResolvePath(c.Context, parentName)
	if err != nil {
		return nil, err
	}
	parent, err := assemble(c, parentPath, parentName)
	if err != nil {
		return nil, err
	}

	sections := sectionsOf(parts)
	for _, s := range sections {
		c.Logger.Debug(LogMsgAssembleInject,
			zap.String(LogFieldPath, path),
			zap.String(LogFieldParent, parentPath),
			zap.String(LogFieldSection, s.Name))
		parent.inject(s)
	}

	// pushes outside sections follow the pushes of the ancestors
	for _, p := range parts {
		if p.kind != nodePush {
			continue
		}
		c.Logger.Debug(LogMsgPushCarried,
			zap.String(LogFieldPath, path),
			zap.String(LogFieldSection, p.name))
		parent.parts = append(parent.parts, p)
	}

	c.Logger.Debug(LogMsgAssembleEnd,
		zap.String(LogFieldPath, path),
		zap.String(LogFieldParent, parentPath),
		zap.Int(LogFieldSections, len(sections)))
	return parent, nil
}

// inject replaces every definition of s in the layout with the content of s.
// A @parent marker in s becomes the content the layout itself has for s.
func (l *Layout) inject(s Section) {
	content := s.parts
	if s.Kind == SectionBlockWithParent {
		own, _ := sectionDefault(l.parts, s.Name)
		content = replaceParent(content, own)
	}
	injected := &layoutPart{kind: nodeInjected, name: s.Name, body: content}
	l.parts = replaceSection(l.parts, s.Name, injected)
}

// findExtends returns the parent template name when the first directive of
// source is @extends.
func findExtends(c *CompilationContext, path, source string) (string, bool, error) {
	d, ok := firstDirective(c, source)
	if !ok || d.Name != DirectiveExtends {
		return "", false, nil
	}
	if d.Unbalanced {
		return "", false, layoutError(c, ErrorKindUnbalancedArguments, ErrMsgUnbalancedArguments, path, source, d)
	}
	args := d.Arguments()
	if len(args) == 0 {
		return "", false, layoutError(c, ErrorKindInvalidArgument, ErrMsgTemplateNameArgument, path, source, d)
	}
	name, quoted := Unquote(args[0])
	if !quoted || name == "" {
		return "", false, layoutError(c, ErrorKindInvalidArgument, ErrMsgTemplateNameArgument, path, source, d)
	}
	return name, true, nil
}

// firstDirective returns the first unescaped directive outside code regions and
// comments, with an absolute offset.
func firstDirective(c *CompilationContext, source string) (Directive, bool) {
	for tok := range Tokenize(source) {
		if tok.IsCode() {
			continue
		}
		comments := commentSpans(c, tok.Text)
		pos := 0
		for {
			d, ok := NextDirective(tok.Text, pos)
			if !ok {
				break
			}
			if end, inside := insideSpan(comments, d.Start); inside {
				pos = end
				continue
			}
			if d.Escaped {
				pos = d.End
				continue
			}
			d.Start += tok.Offset
			d.End += tok.Offset
			return d, true
		}
	}
	return Directive{}, false
}

// Flatten renders an assembled layout: blocks become their body, inline
// sections and yields their value, and stacks the content pushed onto them.
// A placeholder nobody filled renders the layout's own content for that
// section, or nothing when there is none. Stray @parent markers vanish.
func Flatten(c *CompilationContext, l *Layout) Buffer {
	f := &flattener{
		root:      l.parts,
		stacks:    make(map[string]Buffer),
		resolving: make(map[string]bool),
	}
	walkParts(l.parts, func(p *layoutPart) {
		if p.kind != nodePush {
			return
		}
		var b bufferBuilder
		b.writeBuffer(f.stacks[p.name])
		f.render(&b, p.body)
		f.stacks[p.name] = b.buffer()
	})

	var b bufferBuilder
	f.render(&b, l.parts)
	out := b.buffer()

	c.Logger.Debug(LogMsgFlattenEnd,
		zap.String(LogFieldPath, c.Path),
		zap.Int(LogFieldStacks, len(f.stacks)),
		zap.Int(LogFieldOutput, len(out.Text)))
	return out
}

type flattener struct {
	root      []*layoutPart
	stacks    map[string]Buffer
	resolving map[string]bool
}

func (f *flattener) render(b *bufferBuilder, parts []*layoutPart) {
	for _, p := range parts {
		switch p.kind {
		case nodeText:
			b.writeSource(p.path, p.offset, p.text)
		case nodeValue, nodeInline:
			b.writeValue(p.path, p.offset, p.text)
		case nodeBlock, nodeInjected:
			f.render(b, p.body)
		case nodeYield:
			if p.hasValue {
				b.writeValue(p.path, p.offset, p.text)
				continue
			}
			f.resolve(b, p.name)
		case nodePlaceholder:
			f.resolve(b, p.name)
		case nodeStack:
			b.writeBuffer(f.stacks[p.name])
		}
	}
}

// resolve renders the layout's own content for a section nobody filled. A
// section whose content refers back to itself renders nothing the second time.
func (f *flattener) resolve(b *bufferBuilder, name string) {
	if f.resolving[name] {
		return
	}
	content, ok := sectionDefault(f.root, name)
	if !ok {
		return
	}
	f.resolving[name] = true
	f.render(b, content)
	delete(f.resolving, name)
}
