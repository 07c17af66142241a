// Package engine evaluates export recipes. A recipe is a zygomys program
// that declares a viewer and the layers to export; the engine runs it in a
// sandboxed environment and collects the declarations into a Recipe that
// converts to an export.Job.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/arexport/pkg/export"
	"github.com/chazu/arexport/pkg/layer"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string
	Layer   string // label of the layer concerned, empty for recipe-wide warnings
}

func (w EvalWarning) String() string {
	if w.Layer != "" {
		return w.Layer + ": " + w.Message
	}
	return w.Message
}

// Recipe is the result of evaluating a program: the viewer the layers are
// shown in and the layers to export, in declaration order.
type Recipe struct {
	Viewer layer.ViewerState
	Layers []export.LayerExport
	// Output and Compression are set by (export-to ...); both may be empty.
	Output      string
	Compression string
	Warnings    []EvalWarning
}

// Job converts the recipe to an export job. A non-empty path overrides the
// recipe's own output.
func (r *Recipe) Job(path string) export.Job {
	if path == "" {
		path = r.Output
	}
	return export.Job{
		Path:        path,
		Viewer:      r.Viewer,
		Layers:      r.Layers,
		Compression: r.Compression,
	}
}

// Engine wraps the zygomys interpreter for recipe evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine instance using EvalTimeout.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

// SetTimeout changes the evaluation limit. Non-positive values restore
// EvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = EvalTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// Evaluate runs source and returns the recipe it declares.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns recipe + nil errors + nil error
//   - On parse/eval failure: returns nil recipe + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Recipe, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	timeout := e.timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		r, evalErrs, err := e.evaluate(source)
		ch <- evalResult{recipe: r, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Recipe, []EvalError, error) {
	// Empty source is a valid program that declares nothing.
	if strings.TrimSpace(source) == "" {
		return newRecipeBuilder().finish(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	rb := newRecipeBuilder()
	registerBuiltins(env, rb)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return rb.finish(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
