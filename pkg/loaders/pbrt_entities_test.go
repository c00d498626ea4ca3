package loaders

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-sceneio/pkg/core"
	"github.com/df07/go-sceneio/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerspectiveCamera(t *testing.T) {
	sc := mustParseScene(t, `LookAt 0 0 5  0 0 0  0 1 0
Camera "perspective" "float fov" 90
Film "image" "integer xresolution" 200 "integer yresolution" 100
WorldBegin
WorldEnd
`)
	require.Len(t, sc.Cameras, 1)
	camera := sc.Cameras[0]

	assert.Equal(t, [2]int{200, 100}, camera.Resolution, "Film after Camera still applies")
	assert.InDelta(t, 2.0, camera.Aspect(), 1e-12)
	assert.InDelta(t, 0.012, camera.Lens, 1e-12)
	assert.InDelta(t, 5.0, camera.Focus, 1e-12)
	assert.Zero(t, camera.Aperture)

	assert.True(t, camera.Frame.O.Equals(core.NewVec3(0, 0, 5), 1e-12))
	assert.True(t, camera.Frame.Z.Equals(core.NewVec3(0, 0, 1), 1e-12), "camera looks down -Z")
	assert.True(t, camera.Frame.Y.Equals(core.NewVec3(0, 1, 0), 1e-12))
}

func TestPortraitCameraFovSpansWidth(t *testing.T) {
	sc := mustParseScene(t, `Camera "perspective" "float fov" 60 "float lensradius" 0.5 "float focaldistance" 3
Film "image" "integer xresolution" 100 "integer yresolution" 200
WorldBegin
WorldEnd
`)
	camera := sc.Cameras[0]
	xfov := 2 * math.Atan(camera.FilmWidth/(2*camera.Lens))
	assert.InDelta(t, 60*math.Pi/180, xfov, 1e-9)
	assert.InDelta(t, 1.0, camera.Aperture, 1e-12)
	assert.InDelta(t, 3.0, camera.Focus, 1e-12)
}

func TestCameraWithoutWorld(t *testing.T) {
	sc := mustParseScene(t, `Camera "perspective"`)
	require.Len(t, sc.Cameras, 1, "pending camera is emitted at end of input")
	assert.Equal(t, [2]int{640, 480}, sc.Cameras[0].Resolution)
}

func TestRealisticCamera(t *testing.T) {
	sc := mustParseScene(t, `Camera "realistic" "string lensfile" "lenses/wide.22mm.dat" "float aperturediameter" 0.1 "float focusdistance" 2
WorldBegin
WorldEnd
`)
	camera := sc.Cameras[0]
	assert.InDelta(t, 0.035, camera.Lens, 1e-12, "short lenses are clamped")
	assert.InDelta(t, 2.0, camera.Focus, 1e-12)
}

func TestCameraErrors(t *testing.T) {
	_, err := parseScene(t, `Camera "orthographic"`)
	requireKind(t, err, ErrUnsupportedFeature)

	_, err = parseScene(t, `Camera "perspective" "float frameaspectratio" -1`)
	requireKind(t, err, ErrMalformedParameter)

	_, err = parseScene(t, `Film "image" "integer xresolution" 0`)
	requireKind(t, err, ErrMalformedParameter)

	_, err = parseScene(t, `Film "hologram"`)
	requireKind(t, err, ErrUnsupportedFeature)
}

func TestShapes(t *testing.T) {
	sc := mustParseScene(t, `WorldBegin
Shape "sphere" "float radius" 2
Shape "disk" "float radius" 1 "float height" 0.5
Shape "bilinearmesh" "point3 P" [0 0 0 1 0 0 0 1 0 1 1 0]
Shape "trianglemesh" "point3 P" [0 0 0 1 0 0 0 1 0] "point2 uv" [0 0 1 0 0 0.25]
Shape "loopsubdiv" "point3 P" [0 0 0 1 0 0 0 1 0] "integer indices" [0 1 2]
WorldEnd
`)
	require.Len(t, sc.Shapes, 5)
	require.Len(t, sc.Instances, 5)

	sphere := sc.Shapes[0]
	assert.InDelta(t, 2.0, sphere.Bounds().Max.Z, 1e-9)

	disk := sc.Shapes[1]
	assert.Len(t, disk.Triangles, procSteps)
	assert.InDelta(t, 0.5, disk.Positions[0].Z, 1e-12)

	bilinear := sc.Shapes[2]
	assert.Equal(t, [][3]int{{0, 1, 3}, {0, 3, 2}}, bilinear.Triangles)

	mesh := sc.Shapes[3]
	assert.Equal(t, [][3]int{{0, 1, 2}}, mesh.Triangles, "three vertices imply one triangle")
	assert.Equal(t, core.NewVec2(0, 0.75), mesh.TexCoords[2], "v is flipped")

	assert.Len(t, sc.Shapes[4].Normals, 3)

	for i, inst := range sc.Instances {
		assert.Equal(t, i, inst.Shape)
		assert.Equal(t, fmt.Sprintf("shape_%d", i), inst.Name)
	}
}

func TestShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind *ParseError
	}{
		{"index out of range", `Shape "trianglemesh" "point3 P" [0 0 0 1 0 0 0 1 0] "integer indices" [0 1 3]`, ErrMalformedParameter},
		{"partial triangle", `Shape "trianglemesh" "point3 P" [0 0 0 1 0 0 0 1 0 1 1 0] "integer indices" [0 1]`, ErrMalformedParameter},
		{"normal count", `Shape "trianglemesh" "point3 P" [0 0 0 1 0 0 0 1 0] "normal N" [0 0 1]`, ErrMalformedParameter},
		{"empty mesh", `Shape "trianglemesh"`, ErrMalformedParameter},
		{"bilinear indices", `Shape "bilinearmesh" "point3 P" [0 0 0 1 0 0 0 1 0 1 1 0] "integer indices" [0 1 2]`, ErrMalformedParameter},
		{"curve", `Shape "curve" "point3 P" [0 0 0 1 0 0 0 1 0 1 1 0]`, ErrUnsupportedFeature},
		{"missing ply", `Shape "plymesh" "string filename" "missing.ply"`, ErrFileNotFound},
		{"ply without filename", `Shape "plymesh"`, ErrMalformedParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScene(t, "WorldBegin\n"+tt.src+"\n")
			perr := requireKind(t, err, tt.kind)
			assert.Equal(t, 2, perr.Line)
		})
	}
}

func TestPLYMeshShape(t *testing.T) {
	dir := t.TempDir()
	createTestPLY(t, filepath.Join(dir, "meshes", "quad.ply"), true, false)
	main := writeFile(t, dir, "scene.pbrt", `WorldBegin
Shape "plymesh" "string filename" "meshes/quad.ply"
WorldEnd
`)

	deferred, err := ReadPBRTScene(main, Options{})
	require.NoError(t, err)
	require.Len(t, deferred.Shapes, 1)
	assert.Equal(t, "meshes/quad.ply", deferred.Shapes[0].URI)
	assert.Empty(t, deferred.Shapes[0].Positions, "geometry is deferred without a mesh loader")

	loaded, err := ReadPBRTScene(main, Options{MeshLoader: PLYMeshLoader{}})
	require.NoError(t, err)
	assert.Len(t, loaded.Shapes[0].Positions, 4)
	assert.Len(t, loaded.Shapes[0].Triangles, 2)
	assert.Len(t, loaded.Shapes[0].Normals, 4)
}

func TestIncludedAssetPaths(t *testing.T) {
	dir := t.TempDir()
	createTestPLY(t, filepath.Join(dir, "sub", "mesh.ply"), false, false)
	writeTestImage(t, filepath.Join(dir, "sub", "wood.png"), func(f *os.File, img image.Image) error { return png.Encode(f, img) })
	writeFile(t, dir, "sub/inc.pbrt", `Texture "wood" "spectrum" "imagemap" "string filename" "wood.png"
LightSource "infinite" "string mapname" "wood.png"
Shape "plymesh" "string filename" "mesh.ply"
`)
	main := writeFile(t, dir, "main.pbrt", `WorldBegin
Include "sub/inc.pbrt"
WorldEnd
`)

	sc, err := ReadPBRTScene(main, Options{})
	require.NoError(t, err)
	require.Len(t, sc.Shapes, 1)
	assert.Equal(t, "sub/mesh.ply", sc.Shapes[0].URI)
	require.Len(t, sc.Textures, 2)
	assert.Equal(t, "sub/wood.png", sc.Textures[0].URI)
	assert.Equal(t, "sub/wood.png", sc.Textures[1].URI)

	err = sc.LoadAssets(context.Background(), scene.AssetOptions{
		Dir:    dir,
		Meshes: PLYMeshLoader{},
		Images: ImageProbe{},
	})
	require.NoError(t, err)
	assert.Len(t, sc.Shapes[0].Positions, 4)
	assert.Equal(t, 3, sc.Textures[0].Width)
	assert.Equal(t, 2, sc.Textures[0].Height)
}

func TestAssetPathOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	createTestPLY(t, filepath.Join(dir, "meshes", "quad.ply"), false, false)
	writeFile(t, dir, "scenes/inc.pbrt", `Shape "plymesh" "string filename" "../meshes/quad.ply"
`)
	main := writeFile(t, dir, "scenes/nested/main.pbrt", `WorldBegin
Include "../inc.pbrt"
WorldEnd
`)

	sc, err := ReadPBRTScene(main, Options{})
	require.NoError(t, err)
	assert.Equal(t, "../../meshes/quad.ply", sc.Shapes[0].URI)
}

func TestMaterials(t *testing.T) {
	in := NewInterpreter(scene.NewScene(), Options{})
	require.NoError(t, in.Run(strings.NewReader(`WorldBegin
MakeNamedMaterial "plastic" "string type" "plastic" "rgb Kd" [0.2 0.3 0.4] "float roughness" 0
MakeNamedMaterial "copper" "string type" "metal"
MakeNamedMaterial "gold" "string type" "conductor" "spectrum eta" "Au.eta.spd" "spectrum k" "Au.k.spd" "float roughness" 0.04 "bool remaproughness" false
MakeNamedMaterial "glass" "string type" "glass"
MakeNamedMaterial "thin" "string type" "thindielectric"
MakeNamedMaterial "uber" "string type" "uber" "float opacity" 0.5
MakeNamedMaterial "mirror" "string type" "mirror"
MakeNamedMaterial "mixed" "string type" "mix" "string namedmaterial1" "gold" "string namedmaterial2" "glass"
MakeNamedMaterial "paint" "string type" "fourier" "string bsdffile" "bsdfs/paint.bsdf"
MakeNamedMaterial "portal" "string type" "interface"
WorldEnd
`), "scene.pbrt"))
	materials := in.State().materials

	plastic := materials["plastic"]
	assert.Equal(t, core.NewVec3(0.2, 0.3, 0.4), plastic.Diffuse)
	assert.InDelta(t, 0.01, plastic.Specular.X, 1e-12)
	assert.Zero(t, plastic.Roughness)

	copper := materials["copper"]
	assert.Equal(t, fresnelConductor(1, copperIOR), copper.Specular)
	assert.Greater(t, copper.Specular.X, copper.Specular.Z, "copper is reddish")

	gold := materials["gold"]
	assert.Equal(t, fresnelConductor(1, goldIOR), gold.Specular)
	assert.InDelta(t, 0.2, gold.Roughness, 1e-12)

	glass := materials["glass"]
	assert.Equal(t, core.Splat(1), glass.Transmission)
	assert.InDelta(t, 0.04, glass.Specular.X, 1e-12)
	assert.False(t, glass.Thin)
	assert.True(t, materials["thin"].Thin)

	assert.Equal(t, 0.5, materials["uber"].Opacity)
	assert.Zero(t, materials["mirror"].Roughness)

	mixed := materials["mixed"]
	assert.Equal(t, "mixed", mixed.Name)
	assert.Equal(t, gold.Specular, mixed.Specular)

	assert.Equal(t, core.Splat(0.6), materials["paint"].Diffuse)
	assert.Zero(t, materials["portal"].Opacity)
}

func TestMaterialErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind *ParseError
	}{
		{"no type", `MakeNamedMaterial "m" "rgb Kd" [1 1 1]`, ErrMalformedParameter},
		{"unknown type", `Material "velvet"`, ErrUnsupportedFeature},
		{"unknown mix input", `Material "mix" "string namedmaterial1" "nothing"`, ErrUnknownEntity},
		{"unknown bsdf", `Material "fourier" "string bsdffile" "mystery.bsdf"`, ErrUnsupportedFeature},
		{"unknown texture", `Material "matte" "texture Kd" "nothing"`, ErrUnknownEntity},
		{"bad roughness", `Material "plastic" "string roughness" "rough"`, ErrMalformedParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScene(t, "WorldBegin\n"+tt.src+"\n")
			requireKind(t, err, tt.kind)
		})
	}
}

func TestTextures(t *testing.T) {
	sc := mustParseScene(t, `WorldBegin
Texture "wood" "spectrum" "imagemap" "string filename" "textures/wood.png"
Texture "grey" "spectrum" "constant" "rgb value" [0.3 0.3 0.3]
Texture "tinted" "spectrum" "scale" "texture tex" "wood" "rgb scale" [1 0.5 0.5]
Texture "checks" "spectrum" "checkerboard" "rgb tex1" [1 1 1] "rgb tex2" [0 0 0]
Texture "noise" "float" "fbm"
MakeNamedMaterial "a" "string type" "matte" "texture Kd" "wood"
`+unitTriangle+`
MakeNamedMaterial "b" "string type" "matte" "texture Kd" "grey"
`+unitTriangle+`
MakeNamedMaterial "c" "string type" "matte" "texture Kd" "tinted"
`+unitTriangle+`
MakeNamedMaterial "d" "string type" "matte" "texture Kd" "checks"
`+unitTriangle+`
WorldEnd
`)
	require.Len(t, sc.Textures, 1, "constant textures are folded")
	assert.Equal(t, "textures/wood.png", sc.Textures[0].URI)

	a := sc.Materials[sc.Instances[0].Material]
	assert.Equal(t, 0, a.DiffuseTex)
	assert.Equal(t, core.Splat(1), a.Diffuse)

	b := sc.Materials[sc.Instances[1].Material]
	assert.Equal(t, -1, b.DiffuseTex)
	assert.Equal(t, core.Splat(0.3), b.Diffuse)

	c := sc.Materials[sc.Instances[2].Material]
	assert.Equal(t, 0, c.DiffuseTex, "scale of an image aliases the image")

	d := sc.Materials[sc.Instances[3].Material]
	assert.Equal(t, core.Splat(0.5), d.Diffuse)
}

func TestKeepConstantTextures(t *testing.T) {
	sc := scene.NewScene()
	err := ParsePBRT(strings.NewReader(`WorldBegin
Texture "grey" "spectrum" "constant" "rgb value" [0.3 0.3 0.3]
WorldEnd
`), "scene.pbrt", sc, Options{KeepConstantTextures: true})
	require.NoError(t, err)
	require.Len(t, sc.Textures, 1)
	assert.Equal(t, core.Splat(0.3), sc.Textures[0].Color)
	assert.Empty(t, sc.Textures[0].URI)
}

func TestTextureErrors(t *testing.T) {
	_, err := parseScene(t, "WorldBegin\nTexture \"t\" \"normal\" \"constant\"\n")
	requireKind(t, err, ErrMalformedStatement)

	_, err = parseScene(t, "WorldBegin\nTexture \"t\" \"spectrum\" \"ptex\"\n")
	requireKind(t, err, ErrUnsupportedFeature)

	_, err = parseScene(t, "WorldBegin\nTexture \"t\" \"spectrum\" \"imagemap\"\n")
	requireKind(t, err, ErrMalformedParameter)
}

func TestLights(t *testing.T) {
	sc := mustParseScene(t, `WorldBegin
LightSource "point" "rgb I" [1 2 3] "float scale" 2 "point3 from" [0 4 0]
LightSource "spot" "point3 from" [0 0 0] "point3 to" [0 -1 0]
LightSource "distant" "blackbody L" [5500] "point3 from" [0 1 0] "point3 to" [0 0 0]
AttributeBegin
Rotate 90 1 0 0
LightSource "infinite" "string mapname" "sky.exr"
AttributeEnd
LightSource "goniometric" "string mapname" "profile.exr"
WorldEnd
`)
	require.Len(t, sc.Lights, 4)
	require.Len(t, sc.Environments, 1)

	point := sc.Lights[0]
	assert.Equal(t, "point", point.Type)
	assert.Equal(t, core.NewVec3(2, 4, 6), point.Emission)
	assert.Equal(t, core.NewVec3(0, 4, 0), point.From)

	spot := sc.Lights[1]
	assert.Equal(t, 30.0, spot.ConeAngle)
	assert.Equal(t, 5.0, spot.ConeDelta)
	assert.Equal(t, core.NewVec3(0, -1, 0), spot.To)

	distant := sc.Lights[2]
	assert.Equal(t, "distant", distant.Type)
	assert.False(t, distant.Emission.IsZero())

	assert.Equal(t, "profile.exr", sc.Lights[3].MapName)

	env := sc.Environments[0]
	require.GreaterOrEqual(t, env.EmissionTex, 0)
	assert.Equal(t, "sky.exr", sc.Textures[env.EmissionTex].URI)
	assert.Equal(t, core.Splat(1), env.Emission)
	assert.True(t, env.Frame.Y.Equals(core.NewVec3(0, -1, 0), 1e-9), "got %v", env.Frame.Y)

	_, err := parseScene(t, "WorldBegin\nLightSource \"projection\"\n")
	requireKind(t, err, ErrUnsupportedFeature)
}

func TestAreaLightErrors(t *testing.T) {
	_, err := parseScene(t, "WorldBegin\nAreaLightSource \"portal\"\n")
	requireKind(t, err, ErrUnsupportedFeature)
}

func TestRoughnessRemap(t *testing.T) {
	tests := []struct {
		name   string
		params string
		want   float64
	}{
		{"linear", `"float roughness" 0.25 "bool remaproughness" false`, 0.5},
		{"anisotropic average", `"float uroughness" 0.16 "float vroughness" 0.36 "bool remaproughness" false`, math.Sqrt(0.26)},
		{"zero", `"float roughness" 0`, 0},
		{"default", ``, remapRoughness(0.1, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := mustParams(t, tt.params)
			got, err := materialRoughness(params, 0.1)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
