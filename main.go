// Command arexport evaluates an export recipe and writes the declared
// layers as a glTF, USD or STL asset.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/arexport/pkg/config"
	"github.com/chazu/arexport/pkg/logging"
)

const helpMessage = `
arexport writes viewer layers described by a recipe as 3D AR assets

Usage: arexport [options] <recipe.zy | ->

      -config       =string   TOML configuration file.
      -o            =string   Output file (.gltf, .glb, .usda, .usdz, .stl).
                              Overrides the recipe's (export-to ...).
      -compression  =string   Post-processor for glTF output: draco or meshoptimizer.
      -workers      =number   Isosurface levels extracted at once.
      -check        (flag)    Evaluate the recipe and list its layers without exporting.
      -json         (flag)    Print the result as JSON.
  -h, -help         (flag)    Show help message

A recipe of "-" is read from standard input.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line args and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("arexport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, helpMessage) }

	var (
		configFile  = fs.String("config", "", "")
		output      = fs.String("o", "", "")
		compression = fs.String("compression", "", "")
		workers     = fs.Int("workers", 0, "")
		check       = fs.Bool("check", false, "")
		asJSON      = fs.Bool("json", false, "")
		showHelp    = fs.Bool("help", false, "")
	)
	fs.BoolVar(showHelp, "h", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showHelp {
		fs.Usage()
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, warnings, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "arexport: %v\n", err)
		return 1
	}
	if *compression != "" {
		cfg.Export.Compression = *compression
	}
	if *workers > 0 {
		cfg.Export.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "arexport: %v\n", err)
		return 1
	}

	logger, closer := logging.New(cfg.Log, "arexport: ")
	defer closer.Close()
	for _, w := range warnings {
		logger.Printf("config: %s", w)
	}

	source, err := readRecipe(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "arexport: %v\n", err)
		return 1
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "arexport: %v\n", err)
		return 1
	}

	if *check {
		res := app.Evaluate(source)
		if err := report(stdout, *asJSON, res, func(w io.Writer) { printEval(w, res) }); err != nil {
			fmt.Fprintf(stderr, "arexport: %v\n", err)
			return 1
		}
		if len(res.Errors) > 0 {
			return 1
		}
		return 0
	}

	res := app.Export(ctx, source, *output)
	if err := report(stdout, *asJSON, res, func(w io.Writer) { printExport(w, res) }); err != nil {
		fmt.Fprintf(stderr, "arexport: %v\n", err)
		return 1
	}
	if !res.OK() {
		return 1
	}
	return 0
}

func readRecipe(name string, stdin io.Reader) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read recipe from stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read recipe: %w", err)
	}
	return string(b), nil
}

func report(w io.Writer, asJSON bool, v any, text func(io.Writer)) error {
	if !asJSON {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEval(w io.Writer, res EvalResult) {
	for _, e := range res.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", e.Message)
		}
	}
	for _, msg := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	for _, l := range res.Layers {
		fmt.Fprintf(w, "layer %q: %s (%s)\n", l.Label, l.Kind, l.Method)
	}
}

func printExport(w io.Writer, res ExportResult) {
	printEval(w, res.EvalResult)
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "skipped: %s\n", s)
	}
	if res.CompressionErr != "" {
		fmt.Fprintf(w, "compression failed: %s\n", res.CompressionErr)
	}
	if res.Output != "" {
		fmt.Fprintf(w, "wrote %s (%s)\n", res.Output, res.Format)
	}
}
