package engine

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/lodsmith/pkg/kernel"
)

// exprKernel builds solids that only record how they were made.
type exprKernel struct{}

type exprSolid string

func (s exprSolid) BoundingBox() (min, max [3]float64) { return }

var _ kernel.Kernel = exprKernel{}

func (exprKernel) Box(x, y, z float64) kernel.Solid {
	return exprSolid(fmt.Sprintf("box(%g,%g,%g)", x, y, z))
}
func (exprKernel) Cylinder(h, r float64, seg int) kernel.Solid {
	return exprSolid(fmt.Sprintf("cylinder(%g,%g,%d)", h, r, seg))
}
func (exprKernel) Sphere(r float64) kernel.Solid {
	return exprSolid(fmt.Sprintf("sphere(%g)", r))
}
func (exprKernel) Union(a, b kernel.Solid) kernel.Solid {
	return exprSolid(fmt.Sprintf("union(%s,%s)", a, b))
}
func (exprKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return exprSolid(fmt.Sprintf("difference(%s,%s)", a, b))
}
func (exprKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return exprSolid(fmt.Sprintf("intersection(%s,%s)", a, b))
}
func (exprKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return exprSolid(fmt.Sprintf("translate(%s,%g,%g,%g)", s, x, y, z))
}
func (exprKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return exprSolid(fmt.Sprintf("rotate(%s,%g,%g,%g)", s, x, y, z))
}
func (exprKernel) ToMesh(kernel.Solid) (*kernel.Mesh, error) {
	return nil, fmt.Errorf("not supported")
}

func TestEvaluateEmptySource(t *testing.T) {
	eng := NewEngine(exprKernel{})
	for _, src := range []string{"", "   \n\t  \n  "} {
		s, evalErrs, err := eng.Evaluate(src)
		if err != nil || len(evalErrs) > 0 || s != nil {
			t.Errorf("Evaluate(%q) = %v, %v, %v, want all nil", src, s, evalErrs, err)
		}
	}
}

func TestEvaluateShapes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"box positional", "(box 10 20 5)", "box(10,20,5)"},
		{"box keywords", "(box :z 5 :x 10 :y 20)", "box(10,20,5)"},
		{"sphere", "(sphere 2.5)", "sphere(2.5)"},
		{"cylinder", "(cylinder :height 10 :radius 3)", "cylinder(10,3,32)"},
		{"cylinder segments", "(cylinder 10 3 :segments 8)", "cylinder(10,3,8)"},
		{"union fold", "(union (box 1 1 1) (sphere 1) (sphere 2))",
			"union(union(box(1,1,1),sphere(1)),sphere(2))"},
		{"difference", "(difference (box 4 4 4) (sphere 1))", "difference(box(4,4,4),sphere(1))"},
		{"intersection", "(intersection (box 4 4 4) (sphere 3))", "intersection(box(4,4,4),sphere(3))"},
		{"translate vec3", "(translate (sphere 1) (vec3 1 2 3))", "translate(sphere(1),1,2,3)"},
		{"translate numbers", "(translate (sphere 1) 1 2 3)", "translate(sphere(1),1,2,3)"},
		{"rotate", "(rotate (box 1 2 3) (vec3 0 0 90))", "rotate(box(1,2,3),0,0,90)"},
		{"variables and comments", `
; a plate with a hole
(def plate (box 10 10 1))
(def hole (translate (cylinder :height 2 :radius 1) 5 5 0))
(difference plate hole)
`, "difference(box(10,10,1),translate(cylinder(2,1,32),5,5,0))"},
	}

	eng := NewEngine(exprKernel{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if len(evalErrs) > 0 {
				t.Fatalf("eval errors: %v", evalErrs)
			}
			if got := fmt.Sprint(s); got != tt.want {
				t.Errorf("solid = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateScriptErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"syntax", "(box 1 2", ""},
		{"undefined symbol", "(union (box 1 1 1) missing)", ""},
		{"not a solid", "(+ 1 2)", "must end with a solid"},
		{"negative size", "(box 1 -2 3)", "y must be positive"},
		{"missing argument", "(sphere)", "missing radius"},
		{"wrong type", `(translate (box 1 1 1) "up")`, "expected vec3"},
		{"single union operand", "(union (box 1 1 1))", "at least two solids"},
		{"solid expected", "(difference 3 (box 1 1 1))", "expected solid"},
	}

	eng := NewEngine(exprKernel{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if s != nil {
				t.Fatalf("expected nil solid, got %v", s)
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected at least one eval error")
			}
			if evalErrs[0].Message == "" {
				t.Error("eval error message should not be empty")
			}
			if tt.wantMsg != "" && !strings.Contains(evalErrs[0].Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", evalErrs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine(exprKernel{})
	src := "(union (box 1 2 3) (translate (sphere 1) 0 0 3))"
	first, _, err := eng.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		s, evalErrs, err := eng.Evaluate(src)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("iteration %d: %v %v", i, evalErrs, err)
		}
		if s != first {
			t.Errorf("iteration %d: %v, want %v", i, s, first)
		}
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	if s := e.Error(); !strings.Contains(s, "line 5") || !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() = %q", s)
	}
	e2 := EvalError{Message: "no location"}
	if s := e2.Error(); strings.Contains(s, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// Drives waitWithTimeout with a channel that never delivers.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, 1, &mu, &gen)
	}()

	select {
	case <-done:
		if resultErr == nil || !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error, got: %v", resultErr)
		}
	case <-time.After(EvalTimeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)

	ch := make(chan evalResult, 1)
	ch <- evalResult{solid: exprSolid("box(1,1,1)")}

	s, _, err := waitWithTimeout(ch, 1, &mu, &gen)
	if err == nil || !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
	if s != nil {
		t.Errorf("stale solid %v returned", s)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short line format", "line 3: bad form", 3, "bad form"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1", len(errs))
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"keyword", `(sphere :radius 2)`, `(sphere "__kw_radius" 2)`},
		{"keyword in string preserved", `"see :radius"`, `"see :radius"`},
		{"assignment preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(def big-box (box 1 1 1))`, `(def big_box (box 1 1 1))`},
		{"minus preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative literal preserved", `(box 1 -2 3)`, `(box 1 -2 3)`},
		{"double semicolon comment", `;; note :radius`, `// note :radius`},
		{"single semicolon comment", `; note`, `// note`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
