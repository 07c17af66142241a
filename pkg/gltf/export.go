package gltf

import (
	"fmt"
	"path/filepath"
	"strings"

	qgltf "github.com/qmuntal/gltf"
)

// BuildAndExport builds the document and writes it to path. A .gltf path
// gets every buffer written beside it under its URI; a .glb path gets all
// buffers merged into the binary chunk.
func (b *Builder) BuildAndExport(path string) error {
	doc := b.Build()
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gltf":
		if doc, err = b.attachBuffers(doc); err == nil {
			err = qgltf.Save(doc, path)
		}
	case ".glb":
		if doc, err = b.mergeBuffers(doc); err == nil {
			err = qgltf.SaveBinary(doc, path)
		}
	default:
		return fmt.Errorf("gltf: cannot write %q files", ext)
	}
	if err != nil {
		return fmt.Errorf("gltf: write %s: %w", path, err)
	}
	return nil
}

// resource returns the file resource backing buffer i.
func (b *Builder) resource(i int, buf *qgltf.Buffer) ([]byte, error) {
	for _, f := range b.files {
		if f.Name != buf.URI {
			continue
		}
		if len(f.Data) != buf.ByteLength {
			return nil, fmt.Errorf("buffer %d declares %d bytes, resource has %d", i, buf.ByteLength, len(f.Data))
		}
		return f.Data, nil
	}
	return nil, fmt.Errorf("no file resource for buffer %d (%q)", i, buf.URI)
}

// attachBuffers returns a copy of doc whose buffers carry their bytes, so
// the encoder writes each one to its URI.
func (b *Builder) attachBuffers(doc *Document) (*Document, error) {
	out := *doc
	out.Buffers = make([]*qgltf.Buffer, len(doc.Buffers))
	for i, buf := range doc.Buffers {
		data, err := b.resource(i, buf)
		if err != nil {
			return nil, err
		}
		out.Buffers[i] = &qgltf.Buffer{ByteLength: buf.ByteLength, URI: buf.URI, Data: data}
	}
	return &out, nil
}

// mergeBuffers concatenates every buffer, each starting on a 4-byte
// boundary, into one embedded buffer and rebases the buffer views.
func (b *Builder) mergeBuffers(doc *Document) (*Document, error) {
	var bin []byte
	offsets := make([]int, len(doc.Buffers))
	for i, buf := range doc.Buffers {
		data, err := b.resource(i, buf)
		if err != nil {
			return nil, err
		}
		bin = pad(bin)
		offsets[i] = len(bin)
		bin = append(bin, data...)
	}

	out := *doc
	out.BufferViews = make([]*qgltf.BufferView, len(doc.BufferViews))
	for i, v := range doc.BufferViews {
		rebased := *v
		rebased.ByteOffset += offsets[v.Buffer]
		rebased.Buffer = 0
		out.BufferViews[i] = &rebased
	}
	out.Buffers = nil
	if len(bin) > 0 {
		out.Buffers = []*qgltf.Buffer{{ByteLength: len(bin), Data: bin}}
	}
	return &out, nil
}

// pad extends b with zeros up to a multiple of 4 bytes.
func pad(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}
