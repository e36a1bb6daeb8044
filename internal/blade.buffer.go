package internal

import (
	"sort"
	"strings"
)

// origin maps the bytes of a Buffer from at onwards back to a template source
type origin struct {
	at     int
	path   string
	offset int
	fixed  bool // generated text: every byte maps to offset
}

// Buffer is text assembled from several template sources. It remembers which
// source contributed each byte so errors can point into the right file.
type Buffer struct {
	Text    string
	origins []origin
}

// SourceBuffer returns a buffer holding the whole source stored at path
func SourceBuffer(path, source string) Buffer {
	var b bufferBuilder
	b.writeSource(path, 0, source)
	return b.buffer()
}

// Locate returns the template path and source offset that produced the byte
// at offset.
func (b Buffer) Locate(offset int) (string, int, bool) {
	i := sort.Search(len(b.origins), func(i int) bool {
		return b.origins[i].at > offset
	}) - 1
	if i < 0 {
		return "", 0, false
	}
	o := b.origins[i]
	if o.fixed {
		return o.path, o.offset, true
	}
	return o.path, o.offset + offset - o.at, true
}

type bufferBuilder struct {
	sb      strings.Builder
	origins []origin
}

// writeSource appends text read from path at offset
func (b *bufferBuilder) writeSource(path string, offset int, text string) {
	b.write(origin{path: path, offset: offset}, text)
}

// writeValue appends text that does not appear verbatim in the source, such as
// an unquoted section value. All of it maps to offset.
func (b *bufferBuilder) writeValue(path string, offset int, text string) {
	b.write(origin{path: path, offset: offset, fixed: true}, text)
}

func (b *bufferBuilder) writeBuffer(buf Buffer) {
	base := b.sb.Len()
	for _, o := range buf.origins {
		o.at += base
		b.origins = append(b.origins, o)
	}
	b.sb.WriteString(buf.Text)
}

func (b *bufferBuilder) write(o origin, text string) {
	if text == "" {
		return
	}
	o.at = b.sb.Len()
	b.origins = append(b.origins, o)
	b.sb.WriteString(text)
}

func (b *bufferBuilder) buffer() Buffer {
	return Buffer{Text: b.sb.String(), origins: b.origins}
}
