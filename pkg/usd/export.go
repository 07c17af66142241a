package usd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for output extensions the builder
// cannot write.
var ErrUnsupportedFormat = errors.New("unsupported usd format")

// Export validates the stage and writes it to path. A .usda path gets
// text; a .usdz path gets a package whose root layer is the text layer.
// Binary crate files (.usdc) are not supported.
func (b *Builder) Export(path string) error {
	if errs := Validate(b.stage); len(errs) > 0 {
		return validationErr(errs)
	}

	var text bytes.Buffer
	if err := WriteUSDA(&text, b.stage); err != nil {
		return fmt.Errorf("usd: encode stage: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".usda":
		return writeFile(path, text.Bytes())
	case ".usdz":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".usda"
		var pkg bytes.Buffer
		if err := WriteUSDZ(&pkg, []UsdzEntry{{Name: name, Data: text.Bytes()}}); err != nil {
			return err
		}
		return writeFile(path, pkg.Bytes())
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("usd: write %s: %w", path, err)
	}
	return nil
}
