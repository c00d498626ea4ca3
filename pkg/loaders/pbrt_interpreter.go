package loaders

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/df07/go-sceneio/pkg/core"
	"github.com/df07/go-sceneio/pkg/log"
	"github.com/df07/go-sceneio/pkg/scene"
)

// maxIncludeDepth bounds nested Include statements so that a file that
// includes itself fails instead of exhausting file handles.
const maxIncludeDepth = 64

// Options configures a scene-file interpreter
type Options struct {
	// MeshLoader loads plymesh geometry during the parse. When nil, shapes
	// keep only their URI and can be filled later by Scene.LoadAssets.
	MeshLoader scene.MeshLoader

	// KeepConstantTextures emits constant textures to the builder in
	// addition to folding them into material colors.
	KeepConstantTextures bool

	Logger log.Logger
}

// sourceFile is one entry of the include stack
type sourceFile struct {
	name   string
	dir    string
	reader *statementReader
	closer io.Closer
	line   int // line of the statement being executed
}

// Interpreter executes scene-file statements against a scene builder
type Interpreter struct {
	builder scene.Builder
	opts    Options
	logger  log.Logger
	state   *InterpreterState
	files   []*sourceFile
	root    string
}

// NewInterpreter creates an interpreter that emits entities to builder
func NewInterpreter(builder scene.Builder, opts Options) *Interpreter {
	logger := opts.Logger
	if logger == nil {
		logger = log.New("pbrt")
	}
	return &Interpreter{
		builder: builder,
		opts:    opts,
		logger:  logger,
		state:   NewInterpreterState(),
	}
}

// State exposes the interpreter state for inspection
func (in *Interpreter) State() *InterpreterState {
	return in.state
}

// Depth returns the current graphics-state stack depth
func (in *Interpreter) Depth() int {
	return in.state.Depth()
}

// RunFile opens filename and executes it
func (in *Interpreter) RunFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return openError(filename, err)
	}
	return in.run(&sourceFile{
		name:   filename,
		dir:    filepath.Dir(filename),
		reader: newStatementReader(f),
		closer: f,
	})
}

// Run executes the statements read from r. name is used for error
// messages and to resolve relative Include and mesh paths.
func (in *Interpreter) Run(r io.Reader, name string) error {
	return in.run(&sourceFile{
		name:   name,
		dir:    filepath.Dir(name),
		reader: newStatementReader(r),
	})
}

func (in *Interpreter) run(root *sourceFile) error {
	defer in.closeFiles()

	in.root = root.name
	in.files = append(in.files, root)

	for len(in.files) > 0 {
		file := in.files[len(in.files)-1]
		stmt, ok, err := file.reader.Next()
		if err != nil {
			file.line = stmt.Line
			return in.annotate(err, stmt.Keyword)
		}
		if !ok {
			in.popFile()
			continue
		}
		file.line = stmt.Line
		if err := in.execute(stmt); err != nil {
			return in.annotate(err, stmt.Keyword)
		}
	}

	if err := in.finish(); err != nil {
		var perr *ParseError
		if errors.As(err, &perr) && perr.File == "" {
			perr.File = in.root
		}
		return err
	}
	return nil
}

// finish applies the end-of-input rules: an open world scope is closed
// implicitly, anything else still open is an error.
func (in *Interpreter) finish() error {
	stack := in.state.stack
	if in.state.inWorld && stack.depth() == 2 && stack.topKind() == scopeWorld {
		in.logger.Debug("closing world scope at end of input")
		if err := in.worldEnd(); err != nil {
			return err
		}
	}
	if stack.depth() != 1 {
		return newError(UnbalancedScope, "%s scope left open at end of input", stack.topKind())
	}
	return in.materializeCamera()
}

func (in *Interpreter) popFile() {
	top := in.files[len(in.files)-1]
	in.files = in.files[:len(in.files)-1]
	if top.closer != nil {
		top.closer.Close()
	}
}

func (in *Interpreter) closeFiles() {
	for len(in.files) > 0 {
		in.popFile()
	}
}

// annotate attaches the position of the failing statement and the include
// chain to err
func (in *Interpreter) annotate(err error, keyword string) error {
	var perr *ParseError
	if !errors.As(err, &perr) {
		perr = wrapError(MalformedStatement, err, "read failed")
	}
	top := in.files[len(in.files)-1]
	perr.File = top.name
	perr.Line = top.line
	perr.Keyword = keyword
	perr.Includes = perr.Includes[:0]
	for i := len(in.files) - 2; i >= 0; i-- {
		perr.Includes = append(perr.Includes, fmt.Sprintf("%s:%d", in.files[i].name, in.files[i].line))
	}
	return perr
}

func openError(filename string, err error) *ParseError {
	if errors.Is(err, fs.ErrNotExist) {
		return &ParseError{File: filename, Kind: FileNotFound, Msg: filename, Err: err}
	}
	return &ParseError{File: filename, Kind: MalformedStatement, Msg: "cannot open file", Err: err}
}

// worldOnly lists statements that are valid only between WorldBegin and
// WorldEnd
func worldOnly(kind commandKind) bool {
	switch kind {
	case cmdShape, cmdLightSource, cmdAreaLightSource, cmdMaterial,
		cmdMakeNamedMaterial, cmdNamedMaterial, cmdTexture,
		cmdObjectBegin, cmdObjectEnd, cmdObjectInstance:
		return true
	}
	return false
}

// optionOnly lists render-option statements that must precede WorldBegin
func optionOnly(kind commandKind) bool {
	switch kind {
	case cmdCamera, cmdFilm, cmdSampler, cmdIntegrator, cmdPixelFilter, cmdAccelerator:
		return true
	}
	return false
}

// execute applies one statement to the interpreter state
func (in *Interpreter) execute(stmt statement) error {
	cmd, err := decodeCommand(stmt)
	if err != nil {
		return err
	}

	st := in.state
	if !st.inWorld && worldOnly(cmd.Kind) {
		return newError(MalformedStatement, "%s is only allowed inside WorldBegin", cmd.Kind)
	}
	if st.inWorld && optionOnly(cmd.Kind) {
		return newError(MalformedStatement, "%s is not allowed inside WorldBegin", cmd.Kind)
	}

	gs := st.stack.top()

	switch cmd.Kind {
	case cmdWorldBegin:
		return in.worldBegin()

	case cmdWorldEnd:
		return in.worldEnd()

	case cmdAttributeBegin:
		st.stack.push(scopeAttribute, *gs)

	case cmdAttributeEnd:
		return st.stack.pop(scopeAttribute)

	case cmdTransformBegin:
		st.stack.push(scopeTransform, *gs)

	case cmdTransformEnd:
		return st.stack.pop(scopeTransform)

	case cmdObjectBegin:
		if st.currentObject != "" {
			return newError(UnbalancedScope, "ObjectBegin %q inside object %q", cmd.Name, st.currentObject)
		}
		st.stack.push(scopeObject, *gs)
		st.currentObject = cmd.Name
		st.objects[cmd.Name] = nil

	case cmdObjectEnd:
		if err := st.stack.pop(scopeObject); err != nil {
			return err
		}
		st.currentObject = ""

	case cmdObjectInstance:
		return in.objectInstance(cmd.Name)

	case cmdActiveTransform:
		gs.ActiveStart = cmd.Active != activeEnd
		gs.ActiveEnd = cmd.Active != activeStart

	case cmdTransform:
		gs.setTransform(cmd.Frame)

	case cmdConcatTransform, cmdScale, cmdTranslate, cmdRotate:
		gs.concatTransform(cmd.Frame)

	case cmdLookAt:
		eye, target, up := cmd.LookAt[0], cmd.LookAt[1], cmd.LookAt[2]
		gs.concatTransform(core.LookAtFrame(eye, target, up, true).Inverse())
		gs.LastLookAtDistance = eye.Subtract(target).Length()

	case cmdReverseOrientation:
		gs.ReverseOrientation = !gs.ReverseOrientation

	case cmdCoordinateSystem:
		st.coordSystems[cmd.Name] = [2]core.Frame{gs.TransformStart, gs.TransformEnd}

	case cmdCoordSysTransform:
		saved, ok := st.coordSystems[cmd.Name]
		if !ok {
			return unknownName(UnknownEntity, "coordinate system", cmd.Name, keys(st.coordSystems))
		}
		gs.TransformStart, gs.TransformEnd = saved[0], saved[1]

	case cmdIntegrator, cmdSampler, cmdPixelFilter, cmdAccelerator:
		in.logger.Debugf("ignoring %s %q", cmd.Kind, cmd.Type)

	case cmdFilm:
		return in.film(cmd.Type, cmd.Params)

	case cmdCamera:
		st.camera = &pendingCamera{typ: cmd.Type, params: cmd.Params, state: *gs}
		inverse := gs.TransformStart.Inverse()
		st.coordSystems["camera"] = [2]core.Frame{inverse, gs.TransformEnd.Inverse()}
		// validate now so the error points at the Camera statement
		_, err := in.convertCamera(st.camera)
		return err

	case cmdTexture:
		return in.texture(cmd.Name, cmd.TexType, cmd.Type, cmd.Params)

	case cmdMaterial:
		if cmd.Type == "" {
			gs.Material = ""
			return nil
		}
		name := fmt.Sprintf("unnamed_material_%d", st.materialCount)
		st.materialCount++
		if err := in.material(name, cmd.Type, cmd.Params); err != nil {
			return err
		}
		gs.Material = name

	case cmdMakeNamedMaterial:
		if err := in.material(cmd.Name, cmd.Type, cmd.Params); err != nil {
			return err
		}
		gs.Material = cmd.Name

	case cmdNamedMaterial:
		if !st.HasMaterial(cmd.Name) {
			return unknownName(UnknownEntity, "material", cmd.Name, keys(st.materials))
		}
		gs.Material = cmd.Name

	case cmdShape:
		return in.shape(cmd.Type, cmd.Params)

	case cmdAreaLightSource:
		name := fmt.Sprintf("unnamed_arealight_%d", st.areaLightCount)
		st.areaLightCount++
		if err := in.areaLight(name, cmd.Type, cmd.Params); err != nil {
			return err
		}
		gs.AreaLight = name

	case cmdLightSource:
		return in.light(cmd.Type, cmd.Params)

	case cmdMakeNamedMedium:
		st.media[cmd.Name] = cmd.Type
		in.logger.Debugf("medium %q (%s) recorded but not converted", cmd.Name, cmd.Type)

	case cmdMediumInterface:
		for _, name := range []string{cmd.Inside, cmd.Outside} {
			if _, ok := st.media[name]; name != "" && !ok {
				return unknownName(UnknownEntity, "medium", name, keys(st.media))
			}
		}
		gs.MediumInterior, gs.MediumExterior = cmd.Inside, cmd.Outside

	case cmdInclude:
		return in.include(cmd.Name)

	default:
		return newError(UnknownCommand, "%s", cmd.Kind)
	}
	return nil
}

func (in *Interpreter) worldBegin() error {
	st := in.state
	if st.inWorld || st.worldDone {
		return newError(MalformedStatement, "WorldBegin may appear only once")
	}
	if st.stack.depth() != 1 {
		return newError(UnbalancedScope, "WorldBegin inside %s", st.stack.topKind())
	}
	if err := in.materializeCamera(); err != nil {
		return err
	}

	world := *st.stack.top()
	world.TransformStart = core.IdentityFrame()
	world.TransformEnd = core.IdentityFrame()
	world.ActiveStart, world.ActiveEnd = true, true
	st.stack.push(scopeWorld, world)
	st.coordSystems["world"] = [2]core.Frame{world.TransformStart, world.TransformEnd}
	st.inWorld = true
	return nil
}

func (in *Interpreter) worldEnd() error {
	st := in.state
	if err := st.stack.pop(scopeWorld); err != nil {
		return err
	}
	if st.stack.depth() != 1 {
		return newError(UnbalancedScope, "depth %d after WorldEnd", st.stack.depth())
	}
	st.inWorld = false
	st.worldDone = true
	return nil
}

func (in *Interpreter) include(name string) error {
	if len(in.files) >= maxIncludeDepth {
		return newError(MalformedStatement, "include depth exceeds %d", maxIncludeDepth)
	}
	current := in.files[len(in.files)-1]
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(current.dir, name)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wrapError(FileNotFound, err, "include %q", name)
		}
		return wrapError(MalformedStatement, err, "include %q", name)
	}
	in.logger.Infof("including %s", path)
	in.files = append(in.files, &sourceFile{
		name:   path,
		dir:    filepath.Dir(path),
		reader: newStatementReader(f),
		closer: f,
	})
	return nil
}

// objectInstance replays a recorded object group under the current
// transform
func (in *Interpreter) objectInstance(name string) error {
	st := in.state
	if st.stack.contains(scopeObject) {
		return newError(MalformedStatement, "ObjectInstance %q inside object %q", name, st.currentObject)
	}
	records, ok := st.objects[name]
	if !ok {
		return unknownName(UnknownEntity, "object", name, keys(st.objects))
	}
	gs := st.stack.top()
	for _, rec := range records {
		in.builder.AddInstance(scene.Instance{
			Name:               fmt.Sprintf("%s_%d", name, st.instanceCount),
			Shape:              rec.Shape,
			Material:           rec.Material,
			Frame:              gs.TransformStart.Mul(rec.Frame),
			ReverseOrientation: rec.Reverse != gs.ReverseOrientation,
		})
		st.instanceCount++
	}
	return nil
}

// LoadPBRT parses a scene file into builder
func LoadPBRT(filename string, builder scene.Builder, opts Options) error {
	return NewInterpreter(builder, opts).RunFile(filename)
}

// ParsePBRT parses scene-file text from r into builder. name locates
// relative includes and meshes.
func ParsePBRT(r io.Reader, name string, builder scene.Builder, opts Options) error {
	return NewInterpreter(builder, opts).Run(r, name)
}

// ReadPBRTScene loads a scene file into a new scene graph
func ReadPBRTScene(filename string, opts Options) (*scene.Scene, error) {
	sc := scene.NewScene()
	if err := LoadPBRT(filename, sc, opts); err != nil {
		return nil, err
	}
	return sc, nil
}
