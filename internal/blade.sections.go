package internal

import "strings"

// SectionKind is the shape of a section definition
type SectionKind int

const (
	SectionInline SectionKind = iota
	SectionBlock
	SectionBlockWithParent
)

// String returns the shape name
func (k SectionKind) String() string {
	switch k {
	case SectionInline:
		return "inline"
	case SectionBlock:
		return "block"
	case SectionBlockWithParent:
		return "block_with_parent"
	default:
		return "unknown"
	}
}

// Section is a named piece of content a child template defines for its layout
type Section struct {
	Name    string
	Kind    SectionKind
	Content string

	parts []*layoutPart
}

// layoutKind classifies the pieces of a parsed template
type layoutKind int

const (
	nodeText        layoutKind = iota // raw template text
	nodeValue                         // literal taken from a directive argument
	nodeYield                         // @yield('n'[, default])
	nodePlaceholder                   // @section('n'):
	nodeInline                        // @section('n', value)
	nodeBlock                         // @section('n') ... terminator
	nodeParent                        // @parent
	nodePush                          // @push('n') ... @endpush
	nodeStack                         // @stack('n')
	nodeInjected                      // section content supplied by a descendant
)

// layoutNode is one layout construct with its absolute span in the scanned source.
// Block shapes also carry the span of their body.
type layoutNode struct {
	kind      layoutKind
	name      string
	value     string
	hasValue  bool
	start     int
	end       int
	bodyStart int
	bodyEnd   int
}

func (n layoutNode) body(source string) string {
	return source[n.bodyStart:n.bodyEnd]
}

// layoutPart is one piece of a parsed template. Blocks, pushes and injected
// sections hold their content as nested parts.
type layoutPart struct {
	kind     layoutKind
	name     string
	text     string // raw text, inline value or yield default
	hasValue bool
	path     string
	offset   int    // source offset of the text or directive
	raw      string // unparsed body of a block or push
	body     []*layoutPart
}

// definesSection reports whether the part can receive section content
func (p *layoutPart) definesSection() bool {
	switch p.kind {
	case nodeYield, nodePlaceholder, nodeInline, nodeBlock, nodeInjected:
		return true
	}
	return false
}

// value returns the literal of an inline section or yield as a plain part
func (p *layoutPart) value() *layoutPart {
	return &layoutPart{kind: nodeValue, text: p.text, path: p.path, offset: p.offset}
}

// content returns what the part renders when it stands in for its section
func (p *layoutPart) content() []*layoutPart {
	switch p.kind {
	case nodeBlock, nodeInjected:
		return p.body
	default:
		return []*layoutPart{p.value()}
	}
}

// walkParts calls fn for every part in document order
func walkParts(parts []*layoutPart, fn func(*layoutPart)) {
	for _, p := range parts {
		fn(p)
		walkParts(p.body, fn)
	}
}

// layoutDirectives returns the unescaped layout directives of buf with absolute
// offsets. Code regions and template comments are skipped.
func layoutDirectives(c *CompilationContext, buf string) []Directive {
	var out []Directive
	for tok := range Tokenize(buf) {
		if tok.IsCode() {
			continue
		}
		text := tok.Text
		comments := commentSpans(c, text)
		pos := 0
		for {
			d, ok := NextDirective(text, pos)
			if !ok {
				break
			}
			if end, inside := insideSpan(comments, d.Start); inside {
				pos = end
				continue
			}
			pos = d.End
			if d.Unbalanced {
				pos = d.Start + 1
			}
			if d.Escaped || !isLayoutDirective(d.Name) {
				continue
			}
			d.Start += tok.Offset
			d.End += tok.Offset
			out = append(out, d)
		}
	}
	return out
}

func isLayoutDirective(name string) bool {
	switch name {
	case DirectiveExtends, DirectiveSection, DirectiveEndSection, DirectiveShow,
		DirectiveStop, DirectiveOverwrite, DirectiveYield, DirectiveParent,
		DirectivePush, DirectiveEndPush, DirectiveStack:
		return true
	}
	return false
}

func isSectionTerminator(name string) bool {
	switch name {
	case DirectiveEndSection, DirectiveShow, DirectiveStop, DirectiveOverwrite:
		return true
	}
	return false
}

func insideSpan(spans [][2]int, offset int) (int, bool) {
	for _, s := range spans {
		if offset >= s[0] && offset < s[1] {
			return s[1], true
		}
	}
	return 0, false
}

// scanLayout finds the layout constructs of source. Nodes are ordered by start
// offset and may nest inside block sections and push blocks.
func scanLayout(c *CompilationContext, path, source string) ([]layoutNode, error) {
	dirs := layoutDirectives(c, source)
	var nodes []layoutNode
	for i, d := range dirs {
		if d.Unbalanced {
			return nil, layoutError(c, ErrorKindUnbalancedArguments, ErrMsgUnbalancedArguments, path, source, d)
		}
		if !d.HasArgs && d.Name != DirectiveParent {
			continue
		}
		switch d.Name {
		case DirectiveSection:
			name, err := layoutName(c, path, source, d)
			if err != nil {
				return nil, err
			}
			args := d.Arguments()
			switch {
			case d.TrailingColon:
				nodes = append(nodes, layoutNode{kind: nodePlaceholder, name: name, start: d.Start, end: d.End})
			case len(args) > 1:
				nodes = append(nodes, layoutNode{kind: nodeInline, name: name, value: literalValue(args[1]), start: d.Start, end: d.End})
			default:
				j := matchBlockEnd(dirs, i, isBlockSectionOpen, isSectionTerminator)
				if j < 0 {
					return nil, layoutError(c, ErrorKindUnterminatedSection, ErrMsgUnterminatedSection, path, source, d)
				}
				nodes = append(nodes, layoutNode{
					kind: nodeBlock, name: name,
					start: d.Start, end: dirs[j].End,
					bodyStart: d.End, bodyEnd: dirs[j].Start,
				})
			}
		case DirectiveYield:
			name, err := layoutName(c, path, source, d)
			if err != nil {
				return nil, err
			}
			node := layoutNode{kind: nodeYield, name: name, start: d.Start, end: d.End}
			if args := d.Arguments(); len(args) > 1 {
				node.value = literalValue(args[1])
				node.hasValue = true
			}
			nodes = append(nodes, node)
		case DirectivePush:
			name, err := layoutName(c, path, source, d)
			if err != nil {
				return nil, err
			}
			j := matchBlockEnd(dirs, i, isPushOpen, isPushTerminator)
			if j < 0 {
				return nil, layoutError(c, ErrorKindUnterminatedSection, ErrMsgUnterminatedPush, path, source, d)
			}
			nodes = append(nodes, layoutNode{
				kind: nodePush, name: name,
				start: d.Start, end: dirs[j].End,
				bodyStart: d.End, bodyEnd: dirs[j].Start,
			})
		case DirectiveStack:
			name, err := layoutName(c, path, source, d)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, layoutNode{kind: nodeStack, name: name, start: d.Start, end: d.End})
		case DirectiveParent:
			nodes = append(nodes, layoutNode{kind: nodeParent, start: d.Start, end: markerEnd(d)})
		}
	}
	return nodes, nil
}

func isBlockSectionOpen(d Directive) bool {
	return d.Name == DirectiveSection && !d.TrailingColon && len(d.Arguments()) == 1
}

func isPushOpen(d Directive) bool {
	return d.Name == DirectivePush
}

func isPushTerminator(name string) bool {
	return name == DirectiveEndPush
}

// matchBlockEnd returns the index of the directive closing the block opened at
// dirs[open], counting nested blocks of the same kind, or -1.
func matchBlockEnd(dirs []Directive, open int, opens func(Directive) bool, closes func(string) bool) int {
	depth := 0
	for j := open + 1; j < len(dirs); j++ {
		switch {
		case opens(dirs[j]):
			depth++
		case closes(dirs[j].Name):
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

// layoutName returns the quoted name passed as the first directive argument
func layoutName(c *CompilationContext, path, buf string, d Directive) (string, error) {
	args := d.Arguments()
	if len(args) == 0 {
		return "", layoutError(c, ErrorKindInvalidArgument, ErrMsgSectionNameArgument, path, buf, d)
	}
	name, ok := Unquote(args[0])
	if !ok || name == "" {
		return "", layoutError(c, ErrorKindInvalidArgument, ErrMsgSectionNameArgument, path, buf, d)
	}
	return name, nil
}

// literalValue unquotes an inline section value or yield default. Unquoted
// values are kept as written.
func literalValue(arg string) string {
	if v, ok := Unquote(arg); ok {
		return v
	}
	return strings.TrimSpace(arg)
}

func layoutError(c *CompilationContext, kind ErrorKind, msg, path, buf string, d Directive) *CompileError {
	return NewCompileError(kind, msg).
		WithPath(c.displayPath(path)).
		WithDirective(d.Name).
		WithPosition(positionAt(buf, d.Start))
}

// parseLayout splits source into layout parts
func parseLayout(c *CompilationContext, path, source string) ([]*layoutPart, error) {
	nodes, err := scanLayout(c, path, source)
	if err != nil {
		return nil, err
	}
	return buildParts(path, source, nodes, 0, len(source)), nil
}

// buildParts turns the nodes inside [from, to) into parts. Nodes nested in a
// block are reached through the recursion for that block.
func buildParts(path, source string, nodes []layoutNode, from, to int) []*layoutPart {
	var parts []*layoutPart
	text := func(start, end int) {
		if end > start {
			parts = append(parts, &layoutPart{kind: nodeText, text: source[start:end], path: path, offset: start})
		}
	}
	cursor := from
	for _, n := range nodes {
		if n.start < cursor || n.end > to {
			continue
		}
		text(cursor, n.start)
		p := &layoutPart{
			kind: n.kind, name: n.name,
			text: n.value, hasValue: n.hasValue,
			path: path, offset: n.start,
		}
		if n.kind == nodeBlock || n.kind == nodePush {
			p.raw = n.body(source)
			p.body = buildParts(path, source, nodes, n.bodyStart, n.bodyEnd)
		}
		parts = append(parts, p)
		cursor = n.end
	}
	text(cursor, to)
	return parts
}

// ExtractSections returns the section definitions of a child template. Only
// top-level definitions count, and the last definition of a name wins.
func ExtractSections(c *CompilationContext, path, source string) ([]Section, error) {
	parts, err := parseLayout(c, path, source)
	if err != nil {
		return nil, err
	}
	return sectionsOf(parts), nil
}

func sectionsOf(parts []*layoutPart) []Section {
	var (
		sections []Section
		index    = make(map[string]int)
	)
	for _, p := range parts {
		s := Section{Name: p.name}
		switch p.kind {
		case nodeInline:
			s.Kind = SectionInline
			s.Content = p.text
			s.parts = []*layoutPart{p.value()}
		case nodeBlock:
			s.Kind = SectionBlock
			s.Content = p.raw
			s.parts = p.body
			if containsParent(p.body) {
				s.Kind = SectionBlockWithParent
			}
		default:
			continue
		}
		if i, seen := index[s.Name]; seen {
			sections[i] = s
			continue
		}
		index[s.Name] = len(sections)
		sections = append(sections, s)
	}
	return sections
}

func containsParent(parts []*layoutPart) bool {
	found := false
	walkParts(parts, func(p *layoutPart) {
		if p.kind == nodeParent {
			found = true
		}
	})
	return found
}

// sectionDefault returns the content parts provide for the named section: the
// first block, inline or injected definition, else the first yield default.
func sectionDefault(parts []*layoutPart, name string) ([]*layoutPart, bool) {
	var def, yield *layoutPart
	walkParts(parts, func(p *layoutPart) {
		if def != nil || p.name != name {
			return
		}
		switch p.kind {
		case nodeBlock, nodeInjected, nodeInline:
			def = p
		case nodeYield:
			if p.hasValue && yield == nil {
				yield = p
			}
		}
	})
	if def == nil {
		def = yield
	}
	if def == nil {
		return nil, false
	}
	return def.content(), true
}

// replaceSection swaps every part defining the named section for with
func replaceSection(parts []*layoutPart, name string, with *layoutPart) []*layoutPart {
	out := make([]*layoutPart, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.name == name && p.definesSection():
			out = append(out, with)
		case len(p.body) > 0:
			cp := *p
			cp.body = replaceSection(p.body, name, with)
			out = append(out, &cp)
		default:
			out = append(out, p)
		}
	}
	return out
}

// replaceParent splices own in place of every @parent marker
func replaceParent(parts, own []*layoutPart) []*layoutPart {
	out := make([]*layoutPart, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.kind == nodeParent:
			out = append(out, own...)
		case len(p.body) > 0:
			cp := *p
			cp.body = replaceParent(p.body, own)
			out = append(out, &cp)
		default:
			out = append(out, p)
		}
	}
	return out
}

// markerEnd is the end of a bare marker such as @parent. Unlike other directives
// a marker keeps the whitespace that follows it.
func markerEnd(d Directive) int {
	return d.Start + len(StrSigil) + len(d.Name)
}
