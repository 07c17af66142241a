package export

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Compressor rewrites a finished asset file in place with a compressed
// version. Implementations run outside the builder and may be slow; they
// must honor ctx.
type Compressor interface {
	Compress(ctx context.Context, path string) error
}

// Compression names accepted in Job.Compression.
const (
	CompressionDraco         = "draco"
	CompressionMeshoptimizer = "meshoptimizer"
)

// Command is a Compressor that runs an external program. Args builds the
// program arguments for the file being compressed.
type Command struct {
	Program string
	Args    func(path string) []string
}

// Compress runs the program and reports its output on failure.
func (c Command) Compress(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, c.Program, c.Args(path)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Program, err, msg)
		}
		return fmt.Errorf("%s: %w", c.Program, err)
	}
	return nil
}

// Draco compresses with gltf-pipeline's Draco mesh compression, running
// the script through node.
func Draco(node, script string) Command {
	return Command{
		Program: node,
		Args: func(path string) []string {
			return []string{script, "-i", path, "-o", path, "-d"}
		},
	}
}

// Meshoptimizer compresses with gltfpack.
func Meshoptimizer(gltfpack string) Command {
	return Command{
		Program: gltfpack,
		Args: func(path string) []string {
			return []string{"-i", path, "-o", path}
		},
	}
}
