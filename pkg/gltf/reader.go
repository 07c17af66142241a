package gltf

import (
	"errors"
	"fmt"
	"io/fs"

	qgltf "github.com/qmuntal/gltf"
)

// ErrInvalidDocument is returned when a file is not a well-formed asset.
var ErrInvalidDocument = errors.New("invalid gltf document")

// LoadedAsset is a decoded document with its buffers loaded.
type LoadedAsset struct {
	Document *Document
	Buffers  [][]byte
}

// ReadFile loads a .gltf (with external buffers) or .glb file.
func ReadFile(path string) (*LoadedAsset, error) {
	doc, err := qgltf.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("gltf: read %s: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
	}
	asset := &LoadedAsset{Document: doc}
	for _, buf := range doc.Buffers {
		asset.Buffers = append(asset.Buffers, buf.Data)
	}
	return asset, asset.Validate()
}

// Validate checks that every view fits its buffer and every accessor fits
// its view.
func (a *LoadedAsset) Validate() error {
	doc := a.Document
	for i, v := range doc.BufferViews {
		if v.Buffer < 0 || v.Buffer >= len(a.Buffers) {
			return fmt.Errorf("%w: view %d references buffer %d", ErrInvalidDocument, i, v.Buffer)
		}
		if v.ByteOffset+v.ByteLength > len(a.Buffers[v.Buffer]) {
			return fmt.Errorf("%w: view %d exceeds its buffer", ErrInvalidDocument, i)
		}
	}
	for i, acc := range doc.Accessors {
		if acc.BufferView == nil {
			return fmt.Errorf("%w: accessor %d has no view", ErrInvalidDocument, i)
		}
		if v := *acc.BufferView; v < 0 || v >= len(doc.BufferViews) {
			return fmt.Errorf("%w: accessor %d references view %d", ErrInvalidDocument, i, v)
		}
		if acc.ByteOffset+acc.Count*ElementSize(acc.Type) > doc.BufferViews[*acc.BufferView].ByteLength {
			return fmt.Errorf("%w: accessor %d exceeds its view", ErrInvalidDocument, i)
		}
	}
	return nil
}

// AccessorData returns the bytes covered by accessor i.
func (a *LoadedAsset) AccessorData(i int) []byte {
	acc := a.Document.Accessors[i]
	view := a.Document.BufferViews[*acc.BufferView]
	start := view.ByteOffset + acc.ByteOffset
	return a.Buffers[view.Buffer][start : start+acc.Count*ElementSize(acc.Type)]
}
