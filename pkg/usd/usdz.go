package usd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zip"
)

// usdzAlignment is the byte boundary every packaged file's data must
// start on.
const usdzAlignment = 64

// zipLocalHeaderLen is the fixed part of a zip local file header.
const zipLocalHeaderLen = 30

// paddingExtraID tags the extra field used to align file data.
const paddingExtraID = 0x1986

// UsdzEntry is one file stored in a package. The first entry must be the
// root layer.
type UsdzEntry struct {
	Name string
	Data []byte
}

// WriteUSDZ writes entries as an uncompressed zip archive whose file data
// are each aligned to 64 bytes.
func WriteUSDZ(w io.Writer, entries []UsdzEntry) error {
	zw := zip.NewWriter(w)
	offset := 0
	for _, e := range entries {
		dataStart := offset + zipLocalHeaderLen + len(e.Name)
		extra := alignmentExtra(dataStart)

		fh := &zip.FileHeader{
			Name:               e.Name,
			Method:             zip.Store,
			CRC32:              crc32.ChecksumIEEE(e.Data),
			CompressedSize64:   uint64(len(e.Data)),
			UncompressedSize64: uint64(len(e.Data)),
			Extra:              extra,
		}
		fw, err := zw.CreateRaw(fh)
		if err != nil {
			return fmt.Errorf("usdz: create %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("usdz: write %s: %w", e.Name, err)
		}
		offset = dataStart + len(extra) + len(e.Data)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("usdz: close archive: %w", err)
	}
	return nil
}

// alignmentExtra returns an extra field that moves data starting at
// dataStart onto the next 64-byte boundary. An extra field needs at least
// its 4 byte header, so a gap smaller than that wraps to the next boundary.
func alignmentExtra(dataStart int) []byte {
	gap := (usdzAlignment - dataStart%usdzAlignment) % usdzAlignment
	if gap == 0 {
		return nil
	}
	for gap < 4 {
		gap += usdzAlignment
	}
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint16(paddingExtraID))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(gap-4))
	buf.Write(make([]byte, gap-4))
	return buf.Bytes()
}
