package loaders

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-sceneio/pkg/core"
	"github.com/df07/go-sceneio/pkg/scene"
)

// WriteOptions controls WritePBRT
type WriteOptions struct {
	// ExternalMeshes references shapes as plymesh files instead of writing
	// their geometry inline
	ExternalMeshes bool
}

// FormatValue renders a parameter as `"type name" value`. Arrays are
// bracketed only when they hold more than one element.
func FormatValue(v Value) string {
	var sb strings.Builder
	sb.WriteString(`"`)
	sb.WriteString(v.Kind.String())
	sb.WriteString(" ")
	sb.WriteString(v.Name)
	sb.WriteString(`" `)

	switch v.Kind {
	case KindString, KindTexture:
		sb.WriteString(quote(v.Str))
		return sb.String()
	case KindBoolean:
		sb.WriteString(quote(strconv.FormatBool(v.Boolean)))
		return sb.String()
	}

	var items []string
	switch {
	case len(v.Integers) > 0:
		for _, n := range v.Integers {
			items = append(items, strconv.Itoa(n))
		}
	case v.Kind == KindInteger:
		items = append(items, strconv.Itoa(v.Integer))
	case len(v.Reals) > 0:
		items = appendFloats(items, v.Reals...)
	case len(v.Vec2s) > 0:
		for _, p := range v.Vec2s {
			items = appendFloats(items, p.X, p.Y)
		}
	case len(v.Vec3s) > 0:
		for _, p := range v.Vec3s {
			items = appendFloats(items, p.X, p.Y, p.Z)
		}
	default:
		switch v.Kind.arity() {
		case 3:
			items = appendFloats(items, v.Vec3.X, v.Vec3.Y, v.Vec3.Z)
		case 2:
			items = appendFloats(items, v.Vec2.X, v.Vec2.Y)
		default:
			items = appendFloats(items, v.Real)
		}
	}
	sb.WriteString(formatList(items))
	return sb.String()
}

// quote wraps s in double quotes. Quoted strings have no escape syntax, so
// s is written verbatim.
func quote(s string) string {
	return `"` + s + `"`
}

// checkString rejects text that cannot appear inside a quoted string
func checkString(s string) error {
	if strings.ContainsAny(s, "\"\r\n") {
		return fmt.Errorf("cannot write %q: quotes and line breaks cannot be quoted", s)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func appendFloats(items []string, fs ...float64) []string {
	for _, f := range fs {
		items = append(items, formatFloat(f))
	}
	return items
}

func formatList(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return "[ " + strings.Join(items, " ") + " ]"
}

func formatFrame(f core.Frame) string {
	m := f.Mat4()
	return formatList(appendFloats(nil, m[:]...))
}

// uniqueNames assigns every entity a distinct output name, suffixing
// repeated or empty names with their index
func uniqueNames(count int, name func(int) string, prefix string) []string {
	names := make([]string, count)
	used := make(map[string]bool, count)
	for i := range names {
		n := name(i)
		if n == "" {
			n = fmt.Sprintf("%s%d", prefix, i)
		}
		for used[n] {
			n = fmt.Sprintf("%s_%d", n, i)
		}
		used[n] = true
		names[i] = n
	}
	return names
}

// pbrtWriter emits one scene as SDL text
// objectKey identifies a shape and material pair shared by several
// instances. Such pairs are written once as an object group.
type objectKey struct {
	shape, material int
}

type pbrtWriter struct {
	w    *bufio.Writer
	sc   *scene.Scene
	opts WriteOptions
	err  error // first string that could not be written

	textureNames  []string
	materialNames []string
	objects       []objectKey
	objectNames   map[objectKey]string
}

// WritePBRT writes the scene as SDL text that the interpreter reads back
// into the same scene graph
func WritePBRT(w io.Writer, sc *scene.Scene, opts WriteOptions) error {
	pw := &pbrtWriter{
		w:    bufio.NewWriter(w),
		sc:   sc,
		opts: opts,
		textureNames: uniqueNames(len(sc.Textures), func(i int) string {
			return sc.Textures[i].Name
		}, "texture"),
		materialNames: uniqueNames(len(sc.Materials), func(i int) string {
			return sc.Materials[i].Name
		}, "material"),
	}

	pw.printf("# Written by go-sceneio\n\n")
	if len(sc.Cameras) > 0 {
		pw.camera(sc.Cameras[0])
	}
	pw.printf("WorldBegin\n\n")
	for i := range sc.Textures {
		pw.texture(i)
	}
	for i := range sc.Materials {
		pw.material(i)
	}
	for _, env := range sc.Environments {
		pw.environment(env)
	}
	for _, light := range sc.Lights {
		pw.light(light)
	}
	pw.sharedObjects()
	for _, key := range pw.objects {
		pw.object(key)
	}
	for _, inst := range sc.Instances {
		if err := pw.instance(inst); err != nil {
			return err
		}
	}
	pw.printf("WorldEnd\n")

	if pw.err != nil {
		return pw.err
	}
	if err := pw.w.Flush(); err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}
	return nil
}

func (pw *pbrtWriter) printf(format string, args ...interface{}) {
	fmt.Fprintf(pw.w, format, args...)
}

// quote quotes s, recording an error when s cannot be written
func (pw *pbrtWriter) quote(s string) string {
	if err := checkString(s); err != nil && pw.err == nil {
		pw.err = err
	}
	return quote(s)
}

// value formats v, recording an error for unwritable strings
func (pw *pbrtWriter) value(v Value) string {
	if v.Kind == KindString || v.Kind == KindTexture {
		pw.quote(v.Str)
	}
	return FormatValue(v)
}

// statement writes a keyword with optional quoted type and parameters
func (pw *pbrtWriter) statement(keyword string, typ string, params ...Value) {
	pw.w.WriteString(keyword)
	if typ != "" {
		pw.w.WriteString(" " + pw.quote(typ))
	}
	for _, p := range params {
		pw.w.WriteString(" " + pw.value(p))
	}
	pw.w.WriteString("\n")
}

func (pw *pbrtWriter) camera(camera scene.Camera) {
	from := camera.Frame.O
	to := from.Subtract(camera.Frame.Z)
	up := camera.Frame.Y
	pw.printf("LookAt %s %s %s\n       %s %s %s\n       %s %s %s\n",
		formatFloat(from.X), formatFloat(from.Y), formatFloat(from.Z),
		formatFloat(to.X), formatFloat(to.Y), formatFloat(to.Z),
		formatFloat(up.X), formatFloat(up.Y), formatFloat(up.Z))

	aspect := camera.Aspect()
	fov := 90.0
	if camera.Lens > 0 {
		yfov := 2 * math.Atan(camera.FilmHeight/(2*camera.Lens))
		if aspect < 1 {
			yfov = 2 * math.Atan(math.Tan(yfov/2)*aspect)
		}
		fov = yfov * 180 / math.Pi
	}

	params := []Value{{Name: "fov", Kind: KindReal, Real: fov}}
	res := camera.Resolution
	if res[0] <= 0 || res[1] <= 0 {
		res = [2]int{640, 480}
	}
	if math.Abs(aspect-float64(res[0])/float64(res[1])) > 1e-6 {
		params = append(params, Value{Name: "frameaspectratio", Kind: KindReal, Real: aspect})
	}
	if camera.Aperture > 0 {
		params = append(params, Value{Name: "lensradius", Kind: KindReal, Real: camera.Aperture / 2})
	}
	if camera.Focus > 0 {
		params = append(params, Value{Name: "focaldistance", Kind: KindReal, Real: camera.Focus})
	}
	pw.statement("Camera", "perspective", params...)
	pw.statement("Film", "image",
		Value{Name: "xresolution", Kind: KindInteger, Integer: res[0]},
		Value{Name: "yresolution", Kind: KindInteger, Integer: res[1]})
	pw.printf("\n")
}

func (pw *pbrtWriter) texture(i int) {
	tex := pw.sc.Textures[i]
	if tex.URI != "" {
		pw.printf("Texture %s \"spectrum\" \"imagemap\" %s\n", pw.quote(pw.textureNames[i]),
			pw.value(Value{Name: "filename", Kind: KindString, Str: tex.URI}))
		return
	}
	pw.printf("Texture %s \"spectrum\" \"constant\" %s\n", pw.quote(pw.textureNames[i]),
		pw.value(Value{Name: "value", Kind: KindColor, Vec3: tex.Color}))
}

// colorParam refers to a texture when the handle is valid, otherwise
// writes the constant color
func (pw *pbrtWriter) colorParam(name string, color core.Vec3, tex int) Value {
	if tex >= 0 && tex < len(pw.textureNames) {
		return Value{Name: name, Kind: KindTexture, Str: pw.textureNames[tex]}
	}
	return Value{Name: name, Kind: KindColor, Vec3: color}
}

func (pw *pbrtWriter) material(i int) {
	m := pw.sc.Materials[i]
	params := []Value{
		{Name: "type", Kind: KindString, Str: "uber"},
		pw.colorParam("Kd", m.Diffuse, m.DiffuseTex),
		pw.colorParam("Ks", m.Specular, m.SpecularTex),
		pw.colorParam("Kt", m.Transmission, m.TransmissionTex),
		{Name: "roughness", Kind: KindReal, Real: m.Roughness * m.Roughness},
		{Name: "remaproughness", Kind: KindBoolean, Boolean: false},
	}
	if m.Opacity != 1 {
		params = append(params, Value{Name: "opacity", Kind: KindReal, Real: m.Opacity})
	}
	pw.printf("MakeNamedMaterial %s", pw.quote(pw.materialNames[i]))
	for _, p := range params {
		pw.printf("\n    %s", pw.value(p))
	}
	pw.printf("\n")
}

func (pw *pbrtWriter) environment(env scene.Environment) {
	params := []Value{{Name: "L", Kind: KindColor, Vec3: env.Emission}}
	if env.EmissionTex >= 0 && env.EmissionTex < len(pw.sc.Textures) {
		params = append(params, Value{Name: "mapname", Kind: KindString, Str: pw.sc.Textures[env.EmissionTex].URI})
	}
	pw.printf("\nAttributeBegin\n")
	pw.printf("  Transform %s\n  ", formatFrame(env.Frame.Mul(environmentBasis)))
	pw.statement("LightSource", "infinite", params...)
	pw.printf("AttributeEnd\n")
}

func (pw *pbrtWriter) light(light scene.Light) {
	var params []Value
	switch light.Type {
	case "distant":
		params = append(params,
			Value{Name: "L", Kind: KindColor, Vec3: light.Emission},
			Value{Name: "from", Kind: KindPoint, Vec3: light.From},
			Value{Name: "to", Kind: KindPoint, Vec3: light.To})
	default:
		params = append(params,
			Value{Name: "I", Kind: KindColor, Vec3: light.Emission},
			Value{Name: "from", Kind: KindPoint, Vec3: light.From})
		if light.Type == "spot" {
			params = append(params,
				Value{Name: "to", Kind: KindPoint, Vec3: light.To},
				Value{Name: "coneangle", Kind: KindReal, Real: light.ConeAngle},
				Value{Name: "conedelta", Kind: KindReal, Real: light.ConeDelta})
		}
		if light.MapName != "" {
			params = append(params, Value{Name: "mapname", Kind: KindString, Str: light.MapName})
		}
	}
	pw.printf("\nAttributeBegin\n")
	pw.printf("  Transform %s\n  ", formatFrame(light.Frame))
	pw.statement("LightSource", light.Type, params...)
	pw.printf("AttributeEnd\n")
}

func (pw *pbrtWriter) checkInstance(inst scene.Instance) error {
	if inst.Shape < 0 || inst.Shape >= len(pw.sc.Shapes) {
		return fmt.Errorf("instance %s: shape %d out of range", inst.Name, inst.Shape)
	}
	if inst.Material < 0 || inst.Material >= len(pw.sc.Materials) {
		return fmt.Errorf("instance %s: material %d out of range", inst.Name, inst.Material)
	}
	return nil
}

// sharedObjects finds the shape and material pairs used by more than one
// instance, in order of first use
func (pw *pbrtWriter) sharedObjects() {
	counts := make(map[objectKey]int)
	var order []objectKey
	for _, inst := range pw.sc.Instances {
		if pw.checkInstance(inst) != nil {
			continue
		}
		key := objectKey{inst.Shape, inst.Material}
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	for _, key := range order {
		if counts[key] > 1 {
			pw.objects = append(pw.objects, key)
		}
	}

	names := uniqueNames(len(pw.objects), func(i int) string {
		return pw.sc.Shapes[pw.objects[i].shape].Name
	}, "object")
	pw.objectNames = make(map[objectKey]string, len(pw.objects))
	for i, key := range pw.objects {
		pw.objectNames[key] = names[i]
	}
}

// object writes a shared shape once inside an object group
func (pw *pbrtWriter) object(key objectKey) {
	pw.printf("\nObjectBegin %s\n", pw.quote(pw.objectNames[key]))
	pw.shape(key.shape, key.material)
	pw.printf("ObjectEnd\n")
}

// shape writes the material binding and geometry of one shape
func (pw *pbrtWriter) shape(shapeIndex, materialIndex int) {
	shape := &pw.sc.Shapes[shapeIndex]
	material := pw.sc.Materials[materialIndex]

	if !material.Emission.IsZero() {
		pw.printf("  ")
		pw.statement("AreaLightSource", "diffuse", Value{Name: "L", Kind: KindColor, Vec3: material.Emission})
	}
	pw.printf("  NamedMaterial %s\n  ", pw.quote(pw.materialNames[materialIndex]))

	if pw.opts.ExternalMeshes || (len(shape.Positions) == 0 && shape.URI != "") {
		pw.statement("Shape", "plymesh", Value{Name: "filename", Kind: KindString, Str: meshPath(shape)})
	} else {
		pw.statement("Shape", "trianglemesh", meshParams(shape)...)
	}
}

func (pw *pbrtWriter) instance(inst scene.Instance) error {
	if err := pw.checkInstance(inst); err != nil {
		return err
	}

	pw.printf("\nAttributeBegin\n")
	pw.printf("  Transform %s\n", formatFrame(inst.Frame))
	if inst.ReverseOrientation {
		pw.printf("  ReverseOrientation\n")
	}
	if name, ok := pw.objectNames[objectKey{inst.Shape, inst.Material}]; ok {
		pw.printf("  ObjectInstance %s\n", pw.quote(name))
	} else {
		pw.shape(inst.Shape, inst.Material)
	}
	pw.printf("AttributeEnd\n")
	return nil
}

// meshPath is the file a shape is saved to when meshes are external.
// Loaded shapes whose URI points outside the output directory are saved
// under shapes/ instead.
func meshPath(shape *scene.Shape) string {
	if shape.URI != "" && (len(shape.Positions) == 0 || filepath.IsLocal(filepath.FromSlash(shape.URI))) {
		return shape.URI
	}
	return filepath.ToSlash(filepath.Join("shapes", shape.Name+".ply"))
}

func meshParams(shape *scene.Shape) []Value {
	indices := make([]int, 0, 3*len(shape.Triangles))
	for _, tri := range shape.Triangles {
		indices = append(indices, tri[0], tri[1], tri[2])
	}
	params := []Value{
		vec3Array("P", KindPoint, shape.Positions),
		{Name: "indices", Kind: KindInteger, Integers: indices},
	}
	if len(indices) == 1 {
		params[1] = Value{Name: "indices", Kind: KindInteger, Integer: indices[0]}
	}
	if len(shape.Normals) > 0 {
		params = append(params, vec3Array("N", KindNormal, shape.Normals))
	}
	if len(shape.TexCoords) > 0 {
		uv := make([]core.Vec2, len(shape.TexCoords))
		for i, t := range shape.TexCoords {
			uv[i] = core.NewVec2(t.X, 1-t.Y)
		}
		v := Value{Name: "uv", Kind: KindPoint2, Vec2s: uv}
		if len(uv) == 1 {
			v = Value{Name: "uv", Kind: KindPoint2, Vec2: uv[0]}
		}
		params = append(params, v)
	}
	return params
}

func vec3Array(name string, kind ValueKind, vs []core.Vec3) Value {
	if len(vs) == 1 {
		return Value{Name: name, Kind: kind, Vec3: vs[0]}
	}
	return Value{Name: name, Kind: kind, Vec3s: vs}
}

// SavePBRT writes the scene to filename with external meshes and saves
// every shape that has geometry as PLY next to it
func SavePBRT(filename string, sc *scene.Scene) error {
	dir := filepath.Dir(filename)
	for i := range sc.Shapes {
		shape := &sc.Shapes[i]
		if len(shape.Positions) == 0 {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(meshPath(shape)))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create mesh directory: %w", err)
		}
		if err := SavePLY(path, shape); err != nil {
			return fmt.Errorf("failed to save shape %s: %w", shape.Name, err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create scene file: %w", err)
	}
	if err := WritePBRT(file, sc, WriteOptions{ExternalMeshes: true}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
