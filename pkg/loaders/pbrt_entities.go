package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-sceneio/pkg/core"
	"github.com/df07/go-sceneio/pkg/scene"
)

const (
	filmHeight       = 0.024 // 35mm film, in meters
	procSteps        = 32    // tessellation of sphere and disk shapes
	defaultFocus     = 1e4
	minFocus         = 1e-2
	minRealisticLens = 35.0 // millimeters
)

// Film

func (in *Interpreter) film(typ string, params ParamList) error {
	switch typ {
	case "image", "rgb", "gbuffer", "spectral":
	default:
		return newError(UnsupportedFeature, "film %q", typ)
	}

	xres, err := params.Int("xresolution", 640)
	if err != nil {
		return err
	}
	yres, err := params.Int("yresolution", 480)
	if err != nil {
		return err
	}
	if xres <= 0 || yres <= 0 {
		return newError(MalformedParameter, "bad film resolution %dx%d", xres, yres)
	}

	in.state.resolution = [2]int{xres, yres}
	in.state.filmAspect = float64(xres) / float64(yres)
	return nil
}

// Camera

// materializeCamera emits the pending camera, if any, with the current
// film settings
func (in *Interpreter) materializeCamera() error {
	st := in.state
	if st.camera == nil {
		return nil
	}
	camera, err := in.convertCamera(st.camera)
	if err != nil {
		return err
	}
	in.builder.AddCamera(camera)
	st.camera = nil
	return nil
}

func (in *Interpreter) convertCamera(pc *pendingCamera) (scene.Camera, error) {
	st := in.state

	// the camera looks down -Z of its frame
	frame := pc.state.TransformStart.Inverse()
	frame.Z = frame.Z.Negate()

	camera := scene.Camera{
		Name:       "camera",
		Frame:      frame,
		FilmHeight: filmHeight,
		Resolution: st.resolution,
	}

	aspect := st.filmAspect
	switch pc.typ {
	case "perspective":
		fov, err := pc.params.Float("fov", 90)
		if err != nil {
			return camera, err
		}
		if aspect, err = pc.params.Float("frameaspectratio", aspect); err != nil {
			return camera, err
		}
		if aspect <= 0 {
			return camera, newError(MalformedParameter, "frameaspectratio must be positive")
		}
		lensRadius, err := pc.params.Float("lensradius", 0)
		if err != nil {
			return camera, err
		}
		focus := defaultFocus
		if pc.state.LastLookAtDistance > 0 {
			focus = pc.state.LastLookAtDistance
		}
		if focus, err = pc.params.Float("focaldistance", focus); err != nil {
			return camera, err
		}

		// fov spans the shorter image axis
		yfov := fov * math.Pi / 180
		if aspect < 1 {
			yfov = 2 * math.Atan(math.Tan(yfov/2)/aspect)
		}
		camera.FilmWidth = filmHeight * aspect
		camera.Lens = filmHeight / (2 * math.Tan(yfov/2))
		camera.Focus = math.Max(minFocus, math.Min(defaultFocus, focus))
		camera.Aperture = 2 * lensRadius

	case "realistic":
		lensFile, err := pc.params.String("lensfile", "")
		if err != nil {
			return camera, err
		}
		aperture, err := pc.params.Float("aperturediameter", 0)
		if err != nil {
			return camera, err
		}
		focus, err := pc.params.Float("focusdistance", 10)
		if err != nil {
			return camera, err
		}
		camera.FilmWidth = filmHeight * aspect
		camera.Lens = math.Max(lensFocalLength(lensFile), minRealisticLens) * 0.001
		camera.Focus = focus
		camera.Aperture = aperture

	default:
		return camera, newError(UnsupportedFeature, "camera %q", pc.typ)
	}
	return camera, nil
}

// lensFocalLength extracts the focal length in millimeters from lens file
// names such as "wide.22mm.dat". It returns 0 when the name has none.
func lensFocalLength(lensFile string) float64 {
	base := strings.TrimSuffix(filepath.Base(lensFile), filepath.Ext(lensFile))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[i+1:]
	}
	focal, err := strconv.ParseFloat(strings.TrimSuffix(base, "mm"), 64)
	if err != nil {
		return 0
	}
	return focal
}

// Shapes

func (in *Interpreter) shape(typ string, params ParamList) error {
	st := in.state
	gs := st.stack.top()
	name := fmt.Sprintf("shape_%d", st.shapeCount)
	st.shapeCount++

	var shape scene.Shape
	var err error
	switch typ {
	case "trianglemesh":
		shape, err = triangleMesh(name, params)
	case "loopsubdiv":
		if shape, err = triangleMesh(name, params); err == nil {
			shape.Normals = scene.ComputeNormals(shape.Positions, shape.Triangles)
			in.logger.Debugf("%s: loopsubdiv approximated by its control mesh", name)
		}
	case "bilinearmesh":
		shape, err = bilinearMesh(name, params)
	case "plymesh":
		shape, err = in.plyMesh(name, params)
	case "sphere":
		var radius float64
		if radius, err = params.Float("radius", 1); err == nil {
			shape = scene.MakeSphere(name, radius, procSteps)
		}
	case "disk":
		var radius, height float64
		if radius, err = params.Float("radius", 1); err != nil {
			break
		}
		if height, err = params.Float("height", 0); err == nil {
			shape = scene.MakeDisk(name, radius, height, procSteps)
		}
	default:
		return newError(UnsupportedFeature, "shape %q", typ)
	}
	if err != nil {
		return err
	}
	if shape.URI == "" && len(shape.Positions) == 0 {
		return newError(MalformedParameter, "shape %q has no vertices", typ)
	}

	material, err := in.resolveMaterial(gs)
	if err != nil {
		return err
	}
	handle := in.builder.AddShape(shape)

	if st.currentObject != "" {
		st.objects[st.currentObject] = append(st.objects[st.currentObject], objectRecord{
			Shape:    handle,
			Material: material,
			Frame:    gs.TransformStart,
			Reverse:  gs.ReverseOrientation,
		})
		return nil
	}
	in.builder.AddInstance(scene.Instance{
		Name:               name,
		Shape:              handle,
		Material:           material,
		Frame:              gs.TransformStart,
		ReverseOrientation: gs.ReverseOrientation,
	})
	return nil
}

// triangleMesh reads P, N, uv and indices. Texture v is flipped to the
// top-left image origin used by the scene graph.
func triangleMesh(name string, params ParamList) (scene.Shape, error) {
	shape := scene.Shape{Name: name}
	var err error
	if shape.Positions, err = params.Vec3s("P"); err != nil {
		return shape, err
	}
	if shape.Normals, err = params.Vec3s("N"); err != nil {
		return shape, err
	}
	if shape.TexCoords, err = texCoords(params); err != nil {
		return shape, err
	}

	indices, err := params.Ints("indices")
	if err != nil {
		return shape, err
	}
	if len(indices) == 0 && len(shape.Positions) == 3 {
		indices = []int{0, 1, 2}
	}
	shape.Triangles, err = groupIndices(indices, len(shape.Positions))
	if err != nil {
		return shape, err
	}
	return shape, checkAttributes(shape)
}

// bilinearMesh splits each bilinear patch (p00 p10 p01 p11) into two
// triangles
func bilinearMesh(name string, params ParamList) (scene.Shape, error) {
	shape := scene.Shape{Name: name}
	var err error
	if shape.Positions, err = params.Vec3s("P"); err != nil {
		return shape, err
	}
	if shape.Normals, err = params.Vec3s("N"); err != nil {
		return shape, err
	}
	if shape.TexCoords, err = texCoords(params); err != nil {
		return shape, err
	}

	indices, err := params.Ints("indices")
	if err != nil {
		return shape, err
	}
	if len(indices) == 0 && len(shape.Positions) == 4 {
		indices = []int{0, 1, 2, 3}
	}
	if len(indices)%4 != 0 {
		return shape, newError(MalformedParameter, "bilinearmesh needs 4 indices per patch, got %d", len(indices))
	}
	quads := make([]int, 0, len(indices)/4*6)
	for i := 0; i < len(indices); i += 4 {
		p00, p10, p01, p11 := indices[i], indices[i+1], indices[i+2], indices[i+3]
		quads = append(quads, p00, p10, p11, p00, p11, p01)
	}
	if shape.Triangles, err = groupIndices(quads, len(shape.Positions)); err != nil {
		return shape, err
	}
	return shape, checkAttributes(shape)
}

func texCoords(params ParamList) ([]core.Vec2, error) {
	name := "uv"
	if !params.Has(name) {
		name = "st"
	}
	uv, err := params.Vec2s(name)
	if err != nil {
		return nil, err
	}
	flipped := make([]core.Vec2, len(uv))
	for i, tc := range uv {
		flipped[i] = core.NewVec2(tc.X, 1-tc.Y)
	}
	if len(flipped) == 0 {
		return nil, nil
	}
	return flipped, nil
}

// groupIndices converts a flat index list to triangles, checking bounds
func groupIndices(indices []int, vertexCount int) ([][3]int, error) {
	if len(indices)%3 != 0 {
		return nil, newError(MalformedParameter, "%d indices is not a list of triangles", len(indices))
	}
	triangles := make([][3]int, len(indices)/3)
	for i := range triangles {
		for k := 0; k < 3; k++ {
			index := indices[3*i+k]
			if index < 0 || index >= vertexCount {
				return nil, newError(MalformedParameter, "index %d out of range [0, %d)", index, vertexCount)
			}
			triangles[i][k] = index
		}
	}
	return triangles, nil
}

func checkAttributes(shape scene.Shape) error {
	n := len(shape.Positions)
	if len(shape.Normals) != 0 && len(shape.Normals) != n {
		return newError(MalformedParameter, "%d normals for %d vertices", len(shape.Normals), n)
	}
	if len(shape.TexCoords) != 0 && len(shape.TexCoords) != n {
		return newError(MalformedParameter, "%d texture coordinates for %d vertices", len(shape.TexCoords), n)
	}
	return nil
}

// plyMesh references an external mesh file relative to the current scene
// file. Geometry is loaded now only when a mesh loader is configured.
func (in *Interpreter) plyMesh(name string, params ParamList) (scene.Shape, error) {
	filename, err := params.String("filename", "")
	if err != nil {
		return scene.Shape{}, err
	}
	if filename == "" {
		return scene.Shape{}, newError(MalformedParameter, "plymesh without filename")
	}

	path, uri := in.assetPath(filename)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return scene.Shape{}, wrapError(FileNotFound, err, "mesh %q", filename)
		}
		return scene.Shape{}, wrapError(MalformedParameter, err, "mesh %q", filename)
	}

	shape := scene.Shape{Name: name, URI: uri}
	if in.opts.MeshLoader == nil {
		return shape, nil
	}
	loaded, err := in.opts.MeshLoader.LoadMesh(path)
	if err != nil {
		return shape, wrapError(MalformedParameter, err, "mesh %q", filename)
	}
	shape.Positions = loaded.Positions
	shape.Normals = loaded.Normals
	shape.TexCoords = loaded.TexCoords
	shape.Triangles = loaded.Triangles
	return shape, nil
}

// assetPath resolves filename against the directory of the file being
// read. uri is the same path relative to the root scene file, which is
// what LoadAssets and the writers resolve against.
func (in *Interpreter) assetPath(filename string) (path, uri string) {
	if filepath.IsAbs(filename) {
		return filename, filename
	}
	path = filepath.Join(in.files[len(in.files)-1].dir, filename)
	rel, err := filepath.Rel(in.files[0].dir, path)
	if err != nil {
		return path, path
	}
	return path, filepath.ToSlash(rel)
}

func (in *Interpreter) assetURI(filename string) string {
	if filename == "" {
		return ""
	}
	_, uri := in.assetPath(filename)
	return uri
}

// resolveMaterial returns the builder handle of the current material with
// the current area light folded in. Each (material, area light) pair is
// emitted once.
func (in *Interpreter) resolveMaterial(gs *GraphicsState) (int, error) {
	st := in.state
	key := derivedKey{material: gs.Material, areaLight: gs.AreaLight}
	if handle, ok := st.derived[key]; ok {
		return handle, nil
	}

	material, ok := st.materials[gs.Material]
	if !ok {
		return -1, unknownName(UnknownEntity, "material", gs.Material, keys(st.materials))
	}
	emission, ok := st.areaLights[gs.AreaLight]
	if !ok {
		return -1, newError(UnknownEntity, "area light %q", gs.AreaLight)
	}
	if !emission.IsZero() {
		material.Emission = emission
		material.Name = fmt.Sprintf("%s_arealight_%d", material.Name, st.derivedCount)
		st.derivedCount++
	}

	handle := in.builder.AddMaterial(material)
	st.derived[key] = handle
	return handle, nil
}

// Area lights

func (in *Interpreter) areaLight(name, typ string, params ParamList) error {
	if typ != "diffuse" {
		return newError(UnsupportedFeature, "area light %q", typ)
	}
	L, err := params.Vec3("L", core.Splat(1))
	if err != nil {
		return err
	}
	scale, err := params.Vec3("scale", core.Splat(1))
	if err != nil {
		return err
	}
	if params.Has("twosided") {
		in.logger.Debugf("%s: twosided ignored", name)
	}
	in.state.areaLights[name] = L.MultiplyVec(scale)
	return nil
}

// Lights

// environmentBasis maps the z-up environment convention of the scene file
// to the y-up convention of the scene graph
var environmentBasis = core.Frame{
	X: core.NewVec3(1, 0, 0),
	Y: core.NewVec3(0, 0, 1),
	Z: core.NewVec3(0, 1, 0),
}

func (in *Interpreter) light(typ string, params ParamList) error {
	st := in.state
	gs := st.stack.top()
	name := fmt.Sprintf("light_%d", st.lightCount)
	st.lightCount++

	scale, err := params.Vec3("scale", core.Splat(1))
	if err != nil {
		return err
	}
	mapName, err := params.String("mapname", "")
	if err != nil {
		return err
	}

	switch typ {
	case "infinite":
		L, err := params.Vec3("L", core.Splat(1))
		if err != nil {
			return err
		}
		env := scene.Environment{
			Name:        name,
			Frame:       gs.TransformStart.Mul(environmentBasis),
			Emission:    L.MultiplyVec(scale),
			EmissionTex: -1,
		}
		if mapName != "" {
			env.EmissionTex = in.builder.AddTexture(scene.Texture{
				Name:  name,
				URI:   in.assetURI(mapName),
				Color: core.Splat(1),
			})
		}
		in.builder.AddEnvironment(env)
		return nil

	case "point", "spot", "goniometric":
		I, err := params.Vec3("I", core.Splat(1))
		if err != nil {
			return err
		}
		light := scene.Light{
			Name:     name,
			Type:     typ,
			Frame:    gs.TransformStart,
			Emission: I.MultiplyVec(scale),
			MapName:  in.assetURI(mapName),
		}
		if light.From, err = params.Vec3("from", core.Vec3{}); err != nil {
			return err
		}
		if typ == "spot" {
			if light.To, err = params.Vec3("to", core.NewVec3(0, 0, 1)); err != nil {
				return err
			}
			if light.ConeAngle, err = params.Float("coneangle", 30); err != nil {
				return err
			}
			if light.ConeDelta, err = params.Float("conedelta", 5); err != nil {
				return err
			}
		}
		in.builder.AddLight(light)
		return nil

	case "distant":
		L, err := params.Vec3("L", core.Splat(1))
		if err != nil {
			return err
		}
		light := scene.Light{
			Name:     name,
			Type:     typ,
			Frame:    gs.TransformStart,
			Emission: L.MultiplyVec(scale),
		}
		if light.From, err = params.Vec3("from", core.Vec3{}); err != nil {
			return err
		}
		if light.To, err = params.Vec3("to", core.NewVec3(0, 0, 1)); err != nil {
			return err
		}
		in.builder.AddLight(light)
		return nil
	}
	return newError(UnsupportedFeature, "light %q", typ)
}

// Textures

func (in *Interpreter) texture(name, valueType, typ string, params ParamList) error {
	st := in.state
	switch valueType {
	case "float", "spectrum", "color", "rgb":
	default:
		return newError(MalformedStatement, "texture %q: bad value type %q", name, valueType)
	}

	switch typ {
	case "imagemap":
		filename, err := params.String("filename", "")
		if err != nil {
			return err
		}
		if filename == "" {
			return newError(MalformedParameter, "imagemap %q without filename", name)
		}
		st.textures[name] = in.builder.AddTexture(scene.Texture{
			Name:  name,
			URI:   in.assetURI(filename),
			Color: core.Splat(1),
		})
		return nil

	case "constant":
		value, err := params.Vec3("value", core.Splat(1))
		if err != nil {
			return err
		}
		st.constTextures[name] = value
		if in.opts.KeepConstantTextures {
			st.textures[name] = in.builder.AddTexture(scene.Texture{Name: name, Color: value})
		}
		return nil

	case "scale", "mix", "checkerboard", "dots", "bilerp":
		return in.combineTextures(name, typ, params)

	case "fbm", "wrinkled", "windy", "marble", "uv":
		in.logger.Debugf("texture %q: %s approximated by a constant", name, typ)
		st.constTextures[name] = core.Splat(0.5)
		return nil
	}
	return newError(UnsupportedFeature, "texture %q", typ)
}

// combineTextures approximates textures built from two inputs. When an
// input is an image texture the result aliases it, otherwise the inputs
// are folded into a constant.
func (in *Interpreter) combineTextures(name, typ string, params ParamList) error {
	type input struct {
		param string
		def   core.Vec3
	}
	var inputs []input
	switch typ {
	case "scale":
		if params.Has("tex") {
			inputs = []input{{"tex", core.Splat(1)}, {"scale", core.Splat(1)}}
		} else {
			inputs = []input{{"tex1", core.Splat(1)}, {"tex2", core.Splat(1)}}
		}
	case "mix":
		inputs = []input{{"tex1", core.Splat(0)}, {"tex2", core.Splat(1)}}
	case "checkerboard":
		inputs = []input{{"tex1", core.Splat(1)}, {"tex2", core.Splat(0)}}
	case "dots":
		inputs = []input{{"inside", core.Splat(1)}, {"outside", core.Splat(0)}}
	case "bilerp":
		inputs = []input{{"v00", core.Splat(0)}, {"v01", core.Splat(1)}, {"v10", core.Splat(0)}, {"v11", core.Splat(1)}}
	}

	st := in.state
	colors := make([]core.Vec3, 0, len(inputs))
	for _, src := range inputs {
		color, handle, err := in.texturedInput(params, src.param, src.def)
		if err != nil {
			return err
		}
		if handle >= 0 {
			in.logger.Debugf("texture %q: %s approximated by %q", name, typ, src.param)
			st.textures[name] = handle
			return nil
		}
		colors = append(colors, color)
	}

	var folded core.Vec3
	if typ == "scale" {
		folded = core.Splat(1)
		for _, c := range colors {
			folded = folded.MultiplyVec(c)
		}
	} else {
		for _, c := range colors {
			folded = folded.Add(c)
		}
		folded = folded.Multiply(1 / float64(len(colors)))
	}
	in.logger.Debugf("texture %q: %s approximated by a constant", name, typ)
	st.constTextures[name] = folded
	return nil
}

// texturedInput resolves a parameter that is either a color or a texture
// reference. Constant textures fold to their color; other textures return
// a white color and their handle.
func (in *Interpreter) texturedInput(params ParamList, name string, def core.Vec3) (core.Vec3, int, error) {
	color, texName, err := params.Textured(name, def)
	if err != nil || texName == "" {
		return color, -1, err
	}
	st := in.state
	if c, ok := st.constTextures[texName]; ok {
		return c, -1, nil
	}
	if handle, ok := st.textures[texName]; ok {
		return core.Splat(1), handle, nil
	}
	candidates := append(keys(st.textures), keys(st.constTextures)...)
	return core.Vec3{}, -1, unknownName(UnknownEntity, "texture", texName, candidates)
}

// Materials

// material converts a material statement and registers it under name
func (in *Interpreter) material(name, typ string, params ParamList) error {
	m, err := in.convertMaterial(name, typ, params)
	if err != nil {
		return err
	}
	st := in.state
	st.materials[name] = m
	// a redefinition must not reuse handles derived from the old one
	for key := range st.derived {
		if key.material == name {
			delete(st.derived, key)
		}
	}
	return nil
}

func (in *Interpreter) convertMaterial(name, typ string, params ParamList) (scene.Material, error) {
	m := scene.NewMaterial(name)
	var err error

	// slot reads a textured color into a material field
	slot := func(param string, def core.Vec3, color *core.Vec3, tex *int) {
		if err == nil {
			*color, *tex, err = in.texturedInput(params, param, def)
		}
	}
	roughness := func(def float64) {
		if err == nil {
			m.Roughness, err = materialRoughness(params, def)
		}
	}

	switch typ {
	case "uber":
		slot("Kd", core.Splat(0.25), &m.Diffuse, &m.DiffuseTex)
		slot("Ks", core.Splat(0.25), &m.Specular, &m.SpecularTex)
		slot("Kt", core.Splat(0), &m.Transmission, &m.TransmissionTex)
		var opacity core.Vec3
		slot("opacity", core.Splat(1), &opacity, &m.OpacityTex)
		m.Opacity = opacity.Mean()
		roughness(0.1)

	case "plastic", "translucent":
		slot("Kd", core.Splat(0.25), &m.Diffuse, &m.DiffuseTex)
		slot("Ks", core.Splat(0.25), &m.Specular, &m.SpecularTex)
		m.Specular = m.Specular.Multiply(0.04)
		if typ == "translucent" {
			slot("transmit", core.Splat(0.5), &m.Transmission, &m.TransmissionTex)
		}
		roughness(0.1)

	case "coateddiffuse":
		slot("reflectance", core.Splat(0.5), &m.Diffuse, &m.DiffuseTex)
		m.Specular = core.Splat(0.04)
		roughness(0)

	case "matte", "diffuse":
		param := "Kd"
		if typ == "diffuse" {
			param = "reflectance"
		}
		slot(param, core.Splat(0.5), &m.Diffuse, &m.DiffuseTex)
		m.Roughness = 1

	case "mirror":
		slot("Kr", core.Splat(0.9), &m.Specular, &m.SpecularTex)
		m.Roughness = 0

	case "metal", "conductor":
		var ior metalIOR
		unused := -1
		slot("eta", copperIOR.Eta, &ior.Eta, &unused)
		slot("k", copperIOR.K, &ior.K, &unused)
		m.Specular = fresnelConductor(1, ior)
		if params.Has("reflectance") {
			slot("reflectance", core.Splat(1), &m.Specular, &m.SpecularTex)
		}
		def := 0.01
		if typ == "conductor" {
			def = 0
		}
		roughness(def)

	case "substrate":
		slot("Kd", core.Splat(0.5), &m.Diffuse, &m.DiffuseTex)
		slot("Ks", core.Splat(0.5), &m.Specular, &m.SpecularTex)
		roughness(0.1)

	case "glass", "dielectric", "thindielectric":
		slot("Kr", core.Splat(1), &m.Specular, &m.SpecularTex)
		m.Specular = m.Specular.Multiply(0.04)
		slot("Kt", core.Splat(1), &m.Transmission, &m.TransmissionTex)
		m.Thin = typ == "thindielectric"
		roughness(0)

	case "hair":
		slot("color", core.Splat(0), &m.Diffuse, &m.DiffuseTex)
		m.Roughness = 1

	case "disney", "measured":
		slot("color", core.Splat(0.5), &m.Diffuse, &m.DiffuseTex)
		m.Roughness = 1

	case "kdsubsurface":
		slot("Kd", core.Splat(0.5), &m.Diffuse, &m.DiffuseTex)
		slot("Kr", core.Splat(1), &m.Specular, &m.SpecularTex)
		m.Specular = m.Specular.Multiply(0.04)
		roughness(0)

	case "subsurface":
		slot("Kr", core.Splat(1), &m.Specular, &m.SpecularTex)
		m.Specular = m.Specular.Multiply(0.04)
		slot("Kt", core.Splat(1), &m.Transmission, &m.TransmissionTex)
		roughness(0)

	case "mix":
		return in.mixMaterial(name, params)

	case "fourier":
		return fourierMaterial(name, params)

	case "interface", "none":
		// invisible boundary between media
		m.Opacity = 0

	case "":
		return m, newError(MalformedParameter, "material %q has no type", name)

	default:
		return m, newError(UnsupportedFeature, "material %q", typ)
	}

	if err == nil {
		switch typ {
		case "uber", "plastic", "translucent", "coateddiffuse", "matte", "diffuse", "mirror",
			"metal", "conductor", "substrate", "glass", "dielectric":
		default:
			in.logger.Debugf("material %q: %s approximated", name, typ)
		}
	}
	return m, err
}

// mixMaterial picks the first defined input of a mix
func (in *Interpreter) mixMaterial(name string, params ParamList) (scene.Material, error) {
	first, err := params.String("namedmaterial1", "")
	if err != nil {
		return scene.Material{}, err
	}
	second, err := params.String("namedmaterial2", "")
	if err != nil {
		return scene.Material{}, err
	}
	pick := first
	if pick == "" {
		pick = second
	}
	m, ok := in.state.materials[pick]
	if !ok || pick == "" {
		return m, unknownName(UnknownEntity, "material", pick, keys(in.state.materials))
	}
	in.logger.Debugf("material %q: mix approximated by %q", name, pick)
	m.Name = name
	return m, nil
}

// fourierMaterial approximates measured BSDF files that ship with common
// scenes
func fourierMaterial(name string, params ParamList) (scene.Material, error) {
	m := scene.NewMaterial(name)
	bsdfFile, err := params.String("bsdffile", "")
	if err != nil {
		return m, err
	}
	switch filepath.Base(bsdfFile) {
	case "paint.bsdf":
		m.Diffuse, m.Specular = core.Splat(0.6), core.Splat(0.4)
		m.Roughness = remapRoughness(0.2, true)
	case "ceramic.bsdf":
		m.Diffuse, m.Specular = core.Splat(0.6), core.Splat(0.4)
		m.Roughness = remapRoughness(0.25, true)
	case "leather.bsdf":
		m.Diffuse, m.Specular = core.NewVec3(0.6, 0.57, 0.48), core.Splat(0.4)
		m.Roughness = remapRoughness(0.3, true)
	case "coated_copper.bsdf":
		m.Specular = fresnelConductor(1, copperIOR)
		m.Roughness = remapRoughness(0.01, true)
	case "roughglass_alpha_0.2.bsdf":
		m.Specular, m.Transmission = core.Splat(0.04), core.Splat(1)
		m.Roughness = remapRoughness(0.2, true)
	case "roughgold_alpha_0.2.bsdf":
		m.Specular = fresnelConductor(1, goldIOR)
		m.Roughness = remapRoughness(0.2, true)
	default:
		return m, newError(UnsupportedFeature, "bsdf file %q", bsdfFile)
	}
	return m, nil
}

// materialRoughness averages uroughness and vroughness, both defaulting to
// roughness, and remaps the result unless remaproughness is false. A
// textured roughness counts as its default.
func materialRoughness(params ParamList, def float64) (float64, error) {
	scalar := func(name string, def core.Vec3) (core.Vec3, error) {
		c, tex, err := params.Textured(name, def)
		if tex != "" {
			return def, err
		}
		return c, err
	}
	r, err := scalar("roughness", core.Splat(def))
	if err != nil {
		return 0, err
	}
	u, err := scalar("uroughness", r)
	if err != nil {
		return 0, err
	}
	v, err := scalar("vroughness", r)
	if err != nil {
		return 0, err
	}
	remap, err := params.Bool("remaproughness", true)
	if err != nil {
		return 0, err
	}
	if u.IsZero() || v.IsZero() {
		return 0, nil
	}
	return remapRoughness((u.Mean()+v.Mean())/2, remap), nil
}
