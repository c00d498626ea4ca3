package loaders

import (
	"path/filepath"
	"strings"

	"github.com/df07/go-sceneio/pkg/core"
)

// paramTypes maps declared type names, including aliases, to value kinds.
// blackbody, spectrum and xyz need special handling and are absent.
var paramTypes = map[string]ValueKind{
	"float":   KindReal,
	"integer": KindInteger,
	"bool":    KindBoolean,
	"string":  KindString,
	"texture": KindTexture,
	"point":   KindPoint,
	"point3":  KindPoint,
	"normal":  KindNormal,
	"normal3": KindNormal,
	"vector":  KindVector,
	"vector3": KindVector,
	"color":   KindColor,
	"rgb":     KindColor,
	"point2":  KindPoint2,
	"vector2": KindVector2,
}

// parseParams reads "type name" value pairs until the input is exhausted
func parseParams(l *lexer) (ParamList, error) {
	var params ParamList
	for !l.done() {
		header, err := l.quoted()
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(header)
		if len(fields) != 2 {
			return nil, newError(MalformedParameter, "bad parameter declaration %q", header)
		}
		value, err := parseValue(l, fields[0], fields[1])
		if err != nil {
			return nil, err
		}
		params = append(params, value)
	}
	return params, nil
}

// parseValue reads the value region following a parameter declaration
func parseValue(l *lexer, typ, name string) (Value, error) {
	if l.done() {
		return Value{}, newError(MalformedParameter, "%q: missing value", name)
	}

	switch typ {
	case "blackbody":
		return parseBlackbody(l, name)
	case "spectrum":
		return parseSpectrum(l, name)
	case "xyz":
		return Value{}, newError(UnsupportedFeature, "%q: xyz colors are not supported", name)
	}

	kind, ok := paramTypes[typ]
	if !ok {
		return Value{}, newError(MalformedParameter, "%q: unknown parameter type %q", name, typ)
	}

	v := Value{Name: name, Kind: kind}
	switch kind {
	case KindString, KindTexture, KindBoolean:
		var items []string
		err := readElements(l, func() error {
			s, err := readStringish(l, kind == KindBoolean)
			items = append(items, s)
			return err
		})
		if err != nil {
			return Value{}, err
		}
		if len(items) > 1 {
			return Value{}, newError(MalformedParameter, "%q: %s does not take an array", name, typ)
		}
		if kind == KindBoolean {
			switch items[0] {
			case "true":
				v.Boolean = true
			case "false":
			default:
				return Value{}, newError(MalformedParameter, "%q: bad bool %q", name, items[0])
			}
		} else {
			v.Str = items[0]
		}

	case KindInteger:
		var items []int
		err := readElements(l, func() error {
			n, err := l.integer()
			items = append(items, n)
			return err
		})
		if err != nil {
			return Value{}, err
		}
		if len(items) == 1 {
			v.Integer = items[0]
		} else {
			v.Integers = items
		}

	default:
		arity := kind.arity()
		var items []float64
		err := readElements(l, func() error {
			for i := 0; i < arity; i++ {
				f, err := l.number()
				if err != nil {
					return err
				}
				items = append(items, f)
			}
			return nil
		})
		if err != nil {
			return Value{}, err
		}
		setFloats(&v, items)
	}
	return v, nil
}

// readElements reads either one bare element or a bracketed list of them
func readElements(l *lexer, read func() error) error {
	if !l.accept('[') {
		return read()
	}
	count := 0
	for !l.accept(']') {
		if l.done() {
			return newError(MalformedParameter, "missing ]")
		}
		if err := read(); err != nil {
			return err
		}
		count++
	}
	if count == 0 {
		return newError(MalformedParameter, "empty array")
	}
	return nil
}

// readStringish reads a quoted string, or a bare word when bare is set
func readStringish(l *lexer, bare bool) (string, error) {
	if bare && l.peek() != '"' {
		if w := l.word(); w != "" {
			return w, nil
		}
	}
	return l.quoted()
}

// setFloats stores numbers grouped by the kind's arity, normalizing a single
// element to the scalar payload
func setFloats(v *Value, items []float64) {
	arity := v.Kind.arity()
	count := len(items) / arity
	switch arity {
	case 1:
		if count == 1 {
			v.Real = items[0]
		} else {
			v.Reals = items
		}
	case 2:
		pairs := make([]core.Vec2, count)
		for i := range pairs {
			pairs[i] = core.NewVec2(items[2*i], items[2*i+1])
		}
		if count == 1 {
			v.Vec2 = pairs[0]
		} else {
			v.Vec2s = pairs
		}
	case 3:
		triples := make([]core.Vec3, count)
		for i := range triples {
			triples[i] = core.NewVec3(items[3*i], items[3*i+1], items[3*i+2])
		}
		if count == 1 {
			v.Vec3 = triples[0]
		} else {
			v.Vec3s = triples
		}
	}
}

// parseBlackbody converts [temperature scale] to a color. The scale
// defaults to 1 when only the temperature is given.
func parseBlackbody(l *lexer, name string) (Value, error) {
	var items []float64
	err := readElements(l, func() error {
		f, err := l.number()
		items = append(items, f)
		return err
	})
	if err != nil {
		return Value{}, err
	}
	if len(items) > 2 {
		return Value{}, newError(MalformedParameter, "%q: blackbody takes a temperature and a scale", name)
	}
	scale := 1.0
	if len(items) == 2 {
		scale = items[1]
	}
	return Value{Name: name, Kind: KindColor, Vec3: blackbodyToRGB(items[0]).Multiply(scale)}, nil
}

// parseSpectrum reads either sampled (wavelength, value) pairs or a named
// spectrum file
func parseSpectrum(l *lexer, name string) (Value, error) {
	start := l.pos
	l.accept('[')
	isFile := l.peek() == '"'
	l.pos = start

	if !isFile {
		v := Value{Name: name, Kind: KindSpectrum}
		var items []float64
		err := readElements(l, func() error {
			f, err := l.number()
			items = append(items, f)
			return err
		})
		if err != nil {
			return Value{}, err
		}
		setFloats(&v, items)
		return v, nil
	}

	filename, err := l.name()
	if err != nil {
		return Value{}, err
	}
	color, err := namedSpectrum(filename)
	if err != nil {
		return Value{}, err
	}
	return Value{Name: name, Kind: KindColor, Vec3: color}, nil
}

// namedSpectrum resolves the builtin spectrum files shipped with common
// scenes: "<metal>.eta.spd", "<metal>.k.spd" and "SHPS.spd".
func namedSpectrum(filename string) (core.Vec3, error) {
	base := filepath.Base(filename)
	if filepath.Ext(base) != ".spd" {
		return core.Vec3{}, newError(UnsupportedSpectrumFile, "%q", filename)
	}
	base = strings.TrimSuffix(base, ".spd")
	if base == "SHPS" {
		return core.Splat(1), nil
	}

	ext := filepath.Ext(base)
	ior, ok := lookupMetal(strings.TrimSuffix(base, ext))
	switch {
	case ok && ext == ".eta":
		return ior.Eta, nil
	case ok && ext == ".k":
		return ior.K, nil
	}
	return core.Vec3{}, newError(UnsupportedSpectrumFile, "%q", filename)
}
