package engine

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEvaluateEmptyString(t *testing.T) {
	for _, src := range []string{"", "   \n\t  \n  "} {
		eng := NewEngine()

		r, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if r == nil {
			t.Fatal("expected non-nil recipe")
		}
		if len(r.Layers) != 0 || len(r.Warnings) != 0 {
			t.Errorf("expected empty recipe, got %d layers, %v", len(r.Layers), r.Warnings)
		}
		if err := r.Viewer.Validate(); err != nil {
			t.Errorf("default viewer invalid: %v", err)
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// Plain arithmetic declares nothing.
	r, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if r == nil || len(r.Layers) != 0 {
		t.Fatalf("expected empty recipe, got %+v", r)
	}
}

func TestEvaluateMultipleExpressions(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	r, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if r == nil {
		t.Fatal("expected non-nil recipe")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	r, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if r != nil {
		t.Fatal("expected nil recipe on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	r, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if r != nil {
		t.Fatal("expected nil recipe on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateSyntaxErrorHasLineInfo(t *testing.T) {
	eng := NewEngine()

	// Put the error on line 2.
	source := "(+ 1 2)\n(+ 3"
	r, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if r != nil {
		t.Fatal("expected nil recipe on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}

	// Line info depends on the zygomys error format; only the message is
	// guaranteed.
	e := evalErrs[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	if e.Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", e.Line, e.Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if s2 := e2.Error(); strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvalWarningString(t *testing.T) {
	if got := (EvalWarning{Layer: "stars", Message: "odd"}).String(); got != "stars: odd" {
		t.Errorf("String() = %q", got)
	}
	if got := (EvalWarning{Message: "odd"}).String(); got != "odd" {
		t.Errorf("String() = %q", got)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	src := `(scatter "p" :x (list 0 1) :y (list 0 1) :z (list 0 1))`

	for i := 0; i < 5; i++ {
		r, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if len(r.Layers) != 1 {
			t.Errorf("iteration %d: expected 1 layer, got %d", i, len(r.Layers))
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// waitWithTimeout is tested directly with a channel that never sends;
	// a program that loops forever is not needed.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	start := time.Now()
	_, _, err := waitWithTimeout(ch, 1, &mu, &gen, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error message, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > EvalTimeout {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestSetTimeout(t *testing.T) {
	eng := NewEngine()
	eng.SetTimeout(time.Second)
	if eng.timeout != time.Second {
		t.Errorf("timeout = %s, want 1s", eng.timeout)
	}
	eng.SetTimeout(0)
	if eng.timeout != EvalTimeout {
		t.Errorf("timeout = %s, want default %s", eng.timeout, EvalTimeout)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // Current generation is 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	// Pass generation 1 (stale).
	_, _, err := waitWithTimeout(ch, 1, &mu, &gen, EvalTimeout)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: scatter: unknown keyword :foo",
			wantLine: 3,
			wantMsg:  "unknown keyword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
