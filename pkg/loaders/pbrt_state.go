package loaders

import (
	"github.com/df07/go-sceneio/pkg/core"
	"github.com/df07/go-sceneio/pkg/scene"
)

// GraphicsState is the attribute record saved and restored by the scope
// statements. It is copied by value on every push.
type GraphicsState struct {
	TransformStart     core.Frame
	TransformEnd       core.Frame
	Material           string
	AreaLight          string
	MediumInterior     string
	MediumExterior     string
	ReverseOrientation bool
	ActiveStart        bool
	ActiveEnd          bool
	LastLookAtDistance float64
}

func defaultGraphicsState() GraphicsState {
	return GraphicsState{
		TransformStart: core.IdentityFrame(),
		TransformEnd:   core.IdentityFrame(),
		ActiveStart:    true,
		ActiveEnd:      true,
	}
}

// setTransform replaces the active transforms
func (g *GraphicsState) setTransform(f core.Frame) {
	if g.ActiveStart {
		g.TransformStart = f
	}
	if g.ActiveEnd {
		g.TransformEnd = f
	}
}

// concatTransform post-multiplies the active transforms by f
func (g *GraphicsState) concatTransform(f core.Frame) {
	if g.ActiveStart {
		g.TransformStart = g.TransformStart.Mul(f)
	}
	if g.ActiveEnd {
		g.TransformEnd = g.TransformEnd.Mul(f)
	}
}

// scopeKind records which statement opened a stack entry
type scopeKind int

const (
	scopeRoot scopeKind = iota
	scopeWorld
	scopeAttribute
	scopeTransform
	scopeObject
)

func (k scopeKind) String() string {
	switch k {
	case scopeRoot:
		return "root"
	case scopeWorld:
		return "WorldBegin"
	case scopeAttribute:
		return "AttributeBegin"
	case scopeTransform:
		return "TransformBegin"
	case scopeObject:
		return "ObjectBegin"
	}
	return "unknown"
}

type scopeEntry struct {
	kind  scopeKind
	state GraphicsState
}

// stateStack is the graphics-state stack. It always holds the root entry.
type stateStack struct {
	entries []scopeEntry
}

func newStateStack() *stateStack {
	return &stateStack{entries: []scopeEntry{{kind: scopeRoot, state: defaultGraphicsState()}}}
}

// top returns the current state for in-place modification
func (s *stateStack) top() *GraphicsState {
	return &s.entries[len(s.entries)-1].state
}

func (s *stateStack) topKind() scopeKind {
	return s.entries[len(s.entries)-1].kind
}

// push saves a copy of state under the given scope kind
func (s *stateStack) push(kind scopeKind, state GraphicsState) {
	s.entries = append(s.entries, scopeEntry{kind: kind, state: state})
}

// pop discards the top entry, which must have been opened by kind
func (s *stateStack) pop(kind scopeKind) error {
	if len(s.entries) == 1 {
		return newError(UnbalancedScope, "no open %s scope", kind)
	}
	if top := s.topKind(); top != kind {
		return newError(UnbalancedScope, "%s scope closed while %s is open", kind, top)
	}
	s.entries = s.entries[:len(s.entries)-1]
	return nil
}

func (s *stateStack) depth() int {
	return len(s.entries)
}

// contains reports whether a scope of the given kind is open
func (s *stateStack) contains(kind scopeKind) bool {
	for _, e := range s.entries {
		if e.kind == kind {
			return true
		}
	}
	return false
}

// derivedKey identifies a material with an area light folded in
type derivedKey struct {
	material  string
	areaLight string
}

// objectRecord is one shape recorded inside ObjectBegin/ObjectEnd
type objectRecord struct {
	Shape    int
	Material int
	Frame    core.Frame
	Reverse  bool
}

// pendingCamera is a Camera statement waiting for the film settings
type pendingCamera struct {
	typ    string
	params ParamList
	state  GraphicsState
}

// InterpreterState is everything the interpreter accumulates during a
// parse. Tables only grow.
type InterpreterState struct {
	stack *stateStack

	materials     map[string]scene.Material // "" is the default material
	derived       map[derivedKey]int
	areaLights    map[string]core.Vec3 // "" is no emission
	textures      map[string]int
	constTextures map[string]core.Vec3
	coordSystems  map[string][2]core.Frame
	objects       map[string][]objectRecord
	media         map[string]string

	currentObject string
	inWorld       bool
	worldDone     bool

	camera     *pendingCamera
	resolution [2]int
	filmAspect float64

	materialCount  int
	areaLightCount int
	derivedCount   int
	lightCount     int
	shapeCount     int
	instanceCount  int
}

// NewInterpreterState returns the state at the start of a file
func NewInterpreterState() *InterpreterState {
	defaultMaterial := scene.NewMaterial("default")
	defaultMaterial.Diffuse = core.Splat(0.5)
	defaultMaterial.Roughness = 1

	return &InterpreterState{
		stack:         newStateStack(),
		materials:     map[string]scene.Material{"": defaultMaterial},
		derived:       make(map[derivedKey]int),
		areaLights:    map[string]core.Vec3{"": {}},
		textures:      make(map[string]int),
		constTextures: make(map[string]core.Vec3),
		coordSystems:  make(map[string][2]core.Frame),
		objects:       make(map[string][]objectRecord),
		media:         make(map[string]string),
		resolution:    [2]int{640, 480},
		filmAspect:    640.0 / 480.0,
	}
}

// Current returns a copy of the top graphics state
func (s *InterpreterState) Current() GraphicsState {
	return *s.stack.top()
}

// Depth returns the number of entries on the graphics-state stack
func (s *InterpreterState) Depth() int {
	return s.stack.depth()
}

// InWorld reports whether WorldBegin has been seen and not closed
func (s *InterpreterState) InWorld() bool {
	return s.inWorld
}

// HasMaterial reports whether a named material is defined
func (s *InterpreterState) HasMaterial(name string) bool {
	_, ok := s.materials[name]
	return ok
}

// HasObject reports whether an object group is defined
func (s *InterpreterState) HasObject(name string) bool {
	_, ok := s.objects[name]
	return ok
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
