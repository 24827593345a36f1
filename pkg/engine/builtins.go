package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/lodsmith/pkg/kernel"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites shape-script source into something zygomys
// accepts:
//
//  1. ; line comments become // comments.
//  2. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbol registration.
//  3. Kebab-case identifiers become snake case (make-shape -> make_shape),
//     since zygomys reads a hyphen as subtraction.
//
// String literals are copied unchanged.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters is part of a name, not
		// the minus operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Script values
// ---------------------------------------------------------------------------

// sexpSolid carries a kernel solid between builtins. expr is the script
// form that built it, used when printing.
type sexpSolid struct {
	solid kernel.Solid
	expr  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string { return s.expr }
func (s *sexpSolid) Type() *zygo.RegisteredType           { return nil }

type vec3 struct{ X, Y, Z float64 }

// sexpVec3 is the value of (vec3 x y z).
type sexpVec3 struct {
	vec vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		if name, ok := isKW(args[i]); ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i++
			} else {
				result.kw[name] = zygo.SexpNull
			}
			continue
		}
		result.positional = append(result.positional, args[i])
	}
	return result
}

// numbers resolves each name from its keyword, falling back to the
// positional argument in the same slot.
func (a kwArgs) numbers(fn string, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		v, ok := a.kw[n]
		if !ok {
			if i >= len(a.positional) {
				return nil, fmt.Errorf("%s: missing %s", fn, n)
			}
			v = a.positional[i]
		}
		f, err := toFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", fn, n, err)
		}
		out[i] = f
	}
	return out, nil
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toOffset reads a vector given either as one vec3 or as three numbers.
func toOffset(fn string, args []zygo.Sexp) (vec3, error) {
	switch len(args) {
	case 1:
		if v, ok := args[0].(*sexpVec3); ok {
			return v.vec, nil
		}
		return vec3{}, fmt.Errorf("%s: expected vec3, got %T (%s)", fn, args[0], args[0].SexpString(nil))
	case 3:
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return vec3{}, fmt.Errorf("%s: %w", fn, err)
			}
			xyz[i] = f
		}
		return vec3{xyz[0], xyz[1], xyz[2]}, nil
	}
	return vec3{}, fmt.Errorf("%s: expected a vec3 or three numbers, got %d arguments", fn, len(args))
}

func requirePositive(fn string, names []string, vals []float64) error {
	for i, v := range vals {
		if !(v > 0) {
			return fmt.Errorf("%s: %s must be positive, got %g", fn, names[i], v)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the shape builtins into env. Every builtin
// builds through k, so the script never sees kernel internals.
//
// Source must be preprocessed with preprocessSource so that :keyword tokens
// arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel) {

	// -----------------------------------------------------------------------
	// (box 10 20 5) or (box :x 10 :y 20 :z 5)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		names := []string{"x", "y", "z"}
		d, err := parseArgs(args).numbers("box", names...)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := requirePositive("box", names, d); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{
			solid: k.Box(d[0], d[1], d[2]),
			expr:  fmt.Sprintf("(box %g %g %g)", d[0], d[1], d[2]),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 10 :radius 3 :segments 32)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		names := []string{"height", "radius"}
		d, err := pa.numbers("cylinder", names...)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := requirePositive("cylinder", names, d); err != nil {
			return zygo.SexpNull, err
		}
		segments := 32
		if v, ok := pa.kw["segments"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
			segments = int(f)
		}
		return &sexpSolid{
			solid: k.Cylinder(d[0], d[1], segments),
			expr:  fmt.Sprintf("(cylinder %g %g)", d[0], d[1]),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere 4) or (sphere :radius 4)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		names := []string{"radius"}
		d, err := parseArgs(args).numbers("sphere", names...)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := requirePositive("sphere", names, d); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{
			solid: k.Sphere(d[0]),
			expr:  fmt.Sprintf("(sphere %g)", d[0]),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...)
	//
	// Each folds left over its arguments.
	// -----------------------------------------------------------------------
	booleans := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        k.Union,
		"difference":   k.Difference,
		"intersection": k.Intersection,
	}
	for op, combine := range booleans {
		env.AddFunction(op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least two solids, got %d", op, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", op, err)
			}
			solid := acc.solid
			exprs := []string{acc.expr}
			for i, a := range args[1:] {
				s, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", op, i+2, err)
				}
				solid = combine(solid, s.solid)
				exprs = append(exprs, s.expr)
			}
			return &sexpSolid{
				solid: solid,
				expr:  fmt.Sprintf("(%s %s)", op, strings.Join(exprs, " ")),
			}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := toOffset("vec3", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (translate s (vec3 1 0 0)) or (translate s 1 0 0)
	// (rotate s (vec3 0 0 90))   angles in degrees, applied X then Y then Z
	// -----------------------------------------------------------------------
	transforms := map[string]func(s kernel.Solid, x, y, z float64) kernel.Solid{
		"translate": k.Translate,
		"rotate":    k.Rotate,
	}
	for op, apply := range transforms {
		env.AddFunction(op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and an offset", op)
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			v, err := toOffset(op, args[1:])
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{
				solid: apply(s.solid, v.X, v.Y, v.Z),
				expr:  fmt.Sprintf("(%s %s %g %g %g)", op, s.expr, v.X, v.Y, v.Z),
			}, nil
		})
	}
}
