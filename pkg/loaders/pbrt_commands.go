package loaders

import (
	"math"

	"github.com/df07/go-sceneio/pkg/core"
)

// commandKind enumerates every statement the interpreter understands
type commandKind int

const (
	cmdWorldBegin commandKind = iota
	cmdWorldEnd
	cmdAttributeBegin
	cmdAttributeEnd
	cmdTransformBegin
	cmdTransformEnd
	cmdObjectBegin
	cmdObjectEnd
	cmdObjectInstance
	cmdActiveTransform
	cmdTransform
	cmdConcatTransform
	cmdScale
	cmdTranslate
	cmdRotate
	cmdLookAt
	cmdReverseOrientation
	cmdCoordinateSystem
	cmdCoordSysTransform
	cmdIntegrator
	cmdSampler
	cmdPixelFilter
	cmdFilm
	cmdAccelerator
	cmdCamera
	cmdTexture
	cmdMaterial
	cmdMakeNamedMaterial
	cmdNamedMaterial
	cmdShape
	cmdAreaLightSource
	cmdLightSource
	cmdMakeNamedMedium
	cmdMediumInterface
	cmdInclude

	numCommandKinds
)

// commandKeywords is the closed set of statement keywords
var commandKeywords = map[string]commandKind{
	"WorldBegin":         cmdWorldBegin,
	"WorldEnd":           cmdWorldEnd,
	"AttributeBegin":     cmdAttributeBegin,
	"AttributeEnd":       cmdAttributeEnd,
	"TransformBegin":     cmdTransformBegin,
	"TransformEnd":       cmdTransformEnd,
	"ObjectBegin":        cmdObjectBegin,
	"ObjectEnd":          cmdObjectEnd,
	"ObjectInstance":     cmdObjectInstance,
	"ActiveTransform":    cmdActiveTransform,
	"Transform":          cmdTransform,
	"ConcatTransform":    cmdConcatTransform,
	"Scale":              cmdScale,
	"Translate":          cmdTranslate,
	"Rotate":             cmdRotate,
	"LookAt":             cmdLookAt,
	"ReverseOrientation": cmdReverseOrientation,
	"CoordinateSystem":   cmdCoordinateSystem,
	"CoordSysTransform":  cmdCoordSysTransform,
	"Integrator":         cmdIntegrator,
	"Sampler":            cmdSampler,
	"PixelFilter":        cmdPixelFilter,
	"Film":               cmdFilm,
	"Accelerator":        cmdAccelerator,
	"Camera":             cmdCamera,
	"Texture":            cmdTexture,
	"Material":           cmdMaterial,
	"MakeNamedMaterial":  cmdMakeNamedMaterial,
	"NamedMaterial":      cmdNamedMaterial,
	"Shape":              cmdShape,
	"AreaLightSource":    cmdAreaLightSource,
	"LightSource":        cmdLightSource,
	"MakeNamedMedium":    cmdMakeNamedMedium,
	"MediumInterface":    cmdMediumInterface,
	"Include":            cmdInclude,
}

var commandNames = func() [numCommandKinds]string {
	var names [numCommandKinds]string
	for keyword, kind := range commandKeywords {
		names[kind] = keyword
	}
	return names
}()

func (k commandKind) String() string {
	if k >= 0 && k < numCommandKinds {
		return commandNames[k]
	}
	return "Unknown"
}

// activeTransform selects which transform slots later transform statements
// modify
type activeTransform int

const (
	activeAll activeTransform = iota
	activeStart
	activeEnd
)

// command is a decoded statement
type command struct {
	Kind    commandKind
	Name    string     // entity name for named commands
	Type    string     // sub-type (shape, material, light, ...)
	TexType string     // Texture value type: float, spectrum, color
	Frame   core.Frame // Transform family
	Active  activeTransform
	LookAt  [3]core.Vec3 // eye, target, up
	Inside  string       // MediumInterface interior
	Outside string       // MediumInterface exterior
	Params  ParamList
}

// decodeCommand parses the arguments of a statement according to its
// keyword
func decodeCommand(stmt statement) (command, error) {
	kind, ok := commandKeywords[stmt.Keyword]
	if !ok {
		return command{}, unknownName(UnknownCommand, "keyword", stmt.Keyword, keywordList())
	}

	cmd := command{Kind: kind}
	l := newLexer(stmt.Args)
	var err error

	switch kind {
	case cmdWorldBegin, cmdWorldEnd, cmdAttributeBegin, cmdAttributeEnd,
		cmdTransformBegin, cmdTransformEnd, cmdObjectEnd, cmdReverseOrientation:
		// no arguments

	case cmdObjectBegin, cmdObjectInstance, cmdCoordinateSystem,
		cmdCoordSysTransform, cmdNamedMaterial, cmdInclude:
		cmd.Name, err = l.name()

	case cmdActiveTransform:
		switch w := l.word(); w {
		case "All":
			cmd.Active = activeAll
		case "StartTime":
			cmd.Active = activeStart
		case "EndTime":
			cmd.Active = activeEnd
		default:
			err = newError(MalformedParameter, "bad active transform %q", w)
		}

	case cmdTransform, cmdConcatTransform:
		cmd.Frame, err = decodeMatrix(l)

	case cmdScale:
		var v []float64
		if v, err = l.numbers(3); err == nil {
			cmd.Frame = core.ScalingFrame(core.NewVec3(v[0], v[1], v[2]))
		}

	case cmdTranslate:
		var v []float64
		if v, err = l.numbers(3); err == nil {
			cmd.Frame = core.TranslationFrame(core.NewVec3(v[0], v[1], v[2]))
		}

	case cmdRotate:
		var v []float64
		if v, err = l.numbers(4); err == nil {
			axis := core.NewVec3(v[1], v[2], v[3])
			cmd.Frame = core.RotationFrame(axis, v[0]*math.Pi/180)
		}

	case cmdLookAt:
		var v []float64
		if v, err = l.numbers(9); err == nil {
			for i := range cmd.LookAt {
				cmd.LookAt[i] = core.NewVec3(v[3*i], v[3*i+1], v[3*i+2])
			}
		}

	case cmdIntegrator, cmdSampler, cmdPixelFilter, cmdFilm, cmdAccelerator,
		cmdCamera, cmdMaterial, cmdShape, cmdAreaLightSource, cmdLightSource:
		if cmd.Type, err = l.name(); err == nil {
			cmd.Params, err = parseParams(l)
		}

	case cmdMakeNamedMaterial:
		if cmd.Name, err = l.name(); err == nil {
			if cmd.Params, err = parseParams(l); err == nil {
				cmd.Type, err = cmd.Params.String("type", "")
			}
		}

	case cmdMakeNamedMedium:
		if cmd.Name, err = l.name(); err == nil {
			if cmd.Params, err = parseParams(l); err == nil {
				cmd.Type, err = cmd.Params.String("type", "")
			}
		}

	case cmdTexture:
		if cmd.Name, err = l.name(); err != nil {
			break
		}
		if cmd.TexType, err = l.name(); err != nil {
			break
		}
		if cmd.Type, err = l.name(); err != nil {
			break
		}
		cmd.Params, err = parseParams(l)

	case cmdMediumInterface:
		if cmd.Inside, err = l.name(); err != nil {
			break
		}
		cmd.Outside = cmd.Inside
		if !l.done() {
			cmd.Outside, err = l.name()
		}

	default:
		err = newError(UnknownCommand, "%s", stmt.Keyword)
	}

	if err == nil && !l.done() && cmd.Params == nil {
		err = newError(MalformedStatement, "unexpected arguments %q", l.rest())
	}
	return cmd, err
}

// decodeMatrix reads a 16-number column-major 4x4 matrix or a 12-number
// column-major 3x4 matrix
func decodeMatrix(l *lexer) (core.Frame, error) {
	v, err := l.numberList()
	if err != nil {
		return core.Frame{}, err
	}
	switch len(v) {
	case 16:
		return core.FrameFromMat4([16]float64(v)), nil
	case 12:
		return core.FrameFromMat3x4([12]float64(v)), nil
	}
	return core.Frame{}, newError(MalformedParameter, "transform needs 12 or 16 numbers, got %d", len(v))
}

func keywordList() []string {
	keywords := make([]string, 0, len(commandKeywords))
	for keyword := range commandKeywords {
		keywords = append(keywords, keyword)
	}
	return keywords
}
