package loaders

import (
	"github.com/df07/go-sceneio/pkg/core"
)

// ValueKind is the declared type of a statement parameter
type ValueKind int

const (
	KindReal ValueKind = iota
	KindInteger
	KindBoolean
	KindString
	KindTexture
	KindPoint
	KindNormal
	KindVector
	KindColor
	KindPoint2
	KindVector2
	KindSpectrum
)

// kindLabels is the type name written for each kind
var kindLabels = [...]string{
	KindReal:     "float",
	KindInteger:  "integer",
	KindBoolean:  "bool",
	KindString:   "string",
	KindTexture:  "texture",
	KindPoint:    "point",
	KindNormal:   "normal",
	KindVector:   "vector",
	KindColor:    "rgb",
	KindPoint2:   "point2",
	KindVector2:  "vector2",
	KindSpectrum: "spectrum",
}

func (k ValueKind) String() string {
	if k >= 0 && int(k) < len(kindLabels) {
		return kindLabels[k]
	}
	return "unknown"
}

// arity is the count of numbers in one scalar of the kind
func (k ValueKind) arity() int {
	switch k {
	case KindPoint, KindNormal, KindVector, KindColor:
		return 3
	case KindPoint2, KindVector2:
		return 2
	}
	return 1
}

// Value is a typed statement parameter. Exactly one payload group is
// meaningful for a given Kind; a non-empty array payload marks a
// multi-element value, otherwise the scalar payload holds it.
type Value struct {
	Name string
	Kind ValueKind

	Real    float64
	Integer int
	Boolean bool
	Str     string
	Vec2    core.Vec2
	Vec3    core.Vec3

	Reals    []float64
	Integers []int
	Vec2s    []core.Vec2
	Vec3s    []core.Vec3
}

// IsArray reports whether the value carries more than one element
func (v Value) IsArray() bool {
	return len(v.Reals) > 0 || len(v.Integers) > 0 || len(v.Vec2s) > 0 || len(v.Vec3s) > 0
}

// Len returns the number of elements of the value
func (v Value) Len() int {
	switch {
	case len(v.Reals) > 0:
		return len(v.Reals)
	case len(v.Integers) > 0:
		return len(v.Integers)
	case len(v.Vec2s) > 0:
		return len(v.Vec2s)
	case len(v.Vec3s) > 0:
		return len(v.Vec3s)
	}
	return 1
}

// ParamList is the ordered parameter list of one statement
type ParamList []Value

// Find returns the named value
func (p ParamList) Find(name string) (Value, bool) {
	for _, v := range p {
		if v.Name == name {
			return v, true
		}
	}
	return Value{}, false
}

// Has reports whether the named value is present
func (p ParamList) Has(name string) bool {
	_, ok := p.Find(name)
	return ok
}

func mismatch(v Value, want string) *ParseError {
	if v.IsArray() {
		return newError(MalformedParameter, "%q: expected %s, got %s array", v.Name, want, v.Kind)
	}
	return newError(MalformedParameter, "%q: expected %s, got %s", v.Name, want, v.Kind)
}

// Float returns the named real, or def when absent
func (p ParamList) Float(name string, def float64) (float64, error) {
	v, ok := p.Find(name)
	if !ok {
		return def, nil
	}
	if v.IsArray() {
		return 0, mismatch(v, "float")
	}
	switch v.Kind {
	case KindReal:
		return v.Real, nil
	case KindInteger:
		return float64(v.Integer), nil
	}
	return 0, mismatch(v, "float")
}

// Int returns the named integer, or def when absent
func (p ParamList) Int(name string, def int) (int, error) {
	v, ok := p.Find(name)
	if !ok {
		return def, nil
	}
	if v.Kind != KindInteger || v.IsArray() {
		return 0, mismatch(v, "integer")
	}
	return v.Integer, nil
}

// Bool returns the named boolean, or def when absent
func (p ParamList) Bool(name string, def bool) (bool, error) {
	v, ok := p.Find(name)
	if !ok {
		return def, nil
	}
	if v.Kind != KindBoolean {
		return false, mismatch(v, "bool")
	}
	return v.Boolean, nil
}

// String returns the named string or texture name, or def when absent
func (p ParamList) String(name string, def string) (string, error) {
	v, ok := p.Find(name)
	if !ok {
		return def, nil
	}
	if v.Kind != KindString && v.Kind != KindTexture {
		return "", mismatch(v, "string")
	}
	return v.Str, nil
}

// Vec3 returns the named 3-vector, or def when absent. A real is splatted
// to all three components.
func (p ParamList) Vec3(name string, def core.Vec3) (core.Vec3, error) {
	v, ok := p.Find(name)
	if !ok {
		return def, nil
	}
	if v.Kind == KindSpectrum {
		return spectrumToRGB(v), nil
	}
	if v.IsArray() {
		return core.Vec3{}, mismatch(v, "vector")
	}
	switch v.Kind {
	case KindPoint, KindNormal, KindVector, KindColor:
		return v.Vec3, nil
	case KindReal:
		return core.Splat(v.Real), nil
	case KindInteger:
		return core.Splat(float64(v.Integer)), nil
	}
	return core.Vec3{}, mismatch(v, "vector")
}

// Ints returns the named integer array; a scalar is a one-element array
func (p ParamList) Ints(name string) ([]int, error) {
	v, ok := p.Find(name)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindInteger {
		return nil, mismatch(v, "integer array")
	}
	if len(v.Integers) > 0 {
		return v.Integers, nil
	}
	return []int{v.Integer}, nil
}

// Vec2s returns the named 2-vector array. A real array of even length is
// regrouped in pairs.
func (p ParamList) Vec2s(name string) ([]core.Vec2, error) {
	v, ok := p.Find(name)
	if !ok {
		return nil, nil
	}
	switch v.Kind {
	case KindPoint2, KindVector2:
		return v.vec2List(), nil
	case KindReal:
		reals := v.Reals
		if len(reals) == 0 {
			reals = []float64{v.Real}
		}
		if len(reals)%2 != 0 {
			return nil, newError(MalformedParameter, "%q: %d floats is not a list of pairs", v.Name, len(reals))
		}
		out := make([]core.Vec2, len(reals)/2)
		for i := range out {
			out[i] = core.NewVec2(reals[2*i], reals[2*i+1])
		}
		return out, nil
	}
	return nil, mismatch(v, "point2 array")
}

// Vec3s returns the named 3-vector array. A real array whose length is a
// multiple of 3 is regrouped in triples.
func (p ParamList) Vec3s(name string) ([]core.Vec3, error) {
	v, ok := p.Find(name)
	if !ok {
		return nil, nil
	}
	switch v.Kind {
	case KindPoint, KindNormal, KindVector, KindColor:
		if len(v.Vec3s) > 0 {
			return v.Vec3s, nil
		}
		return []core.Vec3{v.Vec3}, nil
	case KindReal:
		reals := v.Reals
		if len(reals) == 0 {
			reals = []float64{v.Real}
		}
		if len(reals)%3 != 0 {
			return nil, newError(MalformedParameter, "%q: %d floats is not a list of triples", v.Name, len(reals))
		}
		out := make([]core.Vec3, len(reals)/3)
		for i := range out {
			out[i] = core.NewVec3(reals[3*i], reals[3*i+1], reals[3*i+2])
		}
		return out, nil
	}
	return nil, mismatch(v, "vector array")
}

// Textured returns either a constant color or the name of a texture for
// parameters that accept both forms.
func (p ParamList) Textured(name string, def core.Vec3) (core.Vec3, string, error) {
	v, ok := p.Find(name)
	if !ok {
		return def, "", nil
	}
	if v.Kind == KindTexture {
		return core.Vec3{}, v.Str, nil
	}
	c, err := p.Vec3(name, def)
	return c, "", err
}

func (v Value) vec2List() []core.Vec2 {
	if len(v.Vec2s) > 0 {
		return v.Vec2s
	}
	return []core.Vec2{v.Vec2}
}

// spectrumToRGB approximates a sampled spectrum by the mean of its sample
// values. Samples are (wavelength, value) pairs.
func spectrumToRGB(v Value) core.Vec3 {
	if len(v.Reals) < 2 {
		return core.Splat(v.Real)
	}
	sum, count := 0.0, 0
	for i := 1; i < len(v.Reals); i += 2 {
		sum += v.Reals[i]
		count++
	}
	return core.Splat(sum / float64(count))
}
