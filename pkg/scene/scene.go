package scene

import (
	"github.com/df07/go-sceneio/pkg/core"
)

// Camera is a thin-lens camera looking down its frame's -Z axis
type Camera struct {
	Name         string     `yaml:"name"`
	Frame        core.Frame `yaml:"frame"`
	Orthographic bool       `yaml:"orthographic,omitempty"`
	Lens         float64    `yaml:"lens"`
	FilmWidth    float64    `yaml:"film_width"`
	FilmHeight   float64    `yaml:"film_height"`
	Focus        float64    `yaml:"focus"`
	Aperture     float64    `yaml:"aperture,omitempty"`
	Resolution   [2]int     `yaml:"resolution,flow"`
}

// Aspect returns the film aspect ratio
func (c Camera) Aspect() float64 {
	if c.FilmHeight == 0 {
		return 1
	}
	return c.FilmWidth / c.FilmHeight
}

// Texture is either an image file or a constant color
type Texture struct {
	Name   string    `yaml:"name"`
	URI    string    `yaml:"uri,omitempty"`
	Color  core.Vec3 `yaml:"color"`
	Width  int       `yaml:"width,omitempty"`
	Height int       `yaml:"height,omitempty"`
}

// Material is a layered surface: a diffuse base under a specular coat,
// with optional transmission. Texture fields are handles into
// Scene.Textures or -1.
type Material struct {
	Name         string    `yaml:"name"`
	Emission     core.Vec3 `yaml:"emission"`
	Diffuse      core.Vec3 `yaml:"diffuse"`
	Specular     core.Vec3 `yaml:"specular"`
	Transmission core.Vec3 `yaml:"transmission"`
	Roughness    float64   `yaml:"roughness"`
	Opacity      float64   `yaml:"opacity"`
	Thin         bool      `yaml:"thin,omitempty"`

	EmissionTex     int `yaml:"emission_tex"`
	DiffuseTex      int `yaml:"diffuse_tex"`
	SpecularTex     int `yaml:"specular_tex"`
	TransmissionTex int `yaml:"transmission_tex"`
	OpacityTex      int `yaml:"opacity_tex"`
}

// NewMaterial returns an untextured black material with full opacity
func NewMaterial(name string) Material {
	return Material{
		Name:            name,
		Opacity:         1,
		EmissionTex:     -1,
		DiffuseTex:      -1,
		SpecularTex:     -1,
		TransmissionTex: -1,
		OpacityTex:      -1,
	}
}

// Shape is an indexed triangle mesh. Shapes loaded from a mesh file keep
// their URI and may have empty geometry until LoadAssets runs.
type Shape struct {
	Name      string      `yaml:"name"`
	URI       string      `yaml:"uri,omitempty"`
	Positions []core.Vec3 `yaml:"-"`
	Normals   []core.Vec3 `yaml:"-"`
	TexCoords []core.Vec2 `yaml:"-"`
	Triangles [][3]int    `yaml:"-"`
}

// Bounds returns the bounding box of the shape's positions
func (s *Shape) Bounds() core.AABB {
	return core.NewAABBFromPoints(s.Positions...)
}

// Instance places a shape in the world with a material
type Instance struct {
	Name               string     `yaml:"name"`
	Shape              int        `yaml:"shape"`
	Material           int        `yaml:"material"`
	Frame              core.Frame `yaml:"frame"`
	ReverseOrientation bool       `yaml:"reverse_orientation,omitempty"`
}

// Light is a delta light that has no geometry
type Light struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"` // point, spot, distant or goniometric
	Frame     core.Frame `yaml:"frame"`
	Emission  core.Vec3  `yaml:"emission"`
	From      core.Vec3  `yaml:"from"`
	To        core.Vec3  `yaml:"to"`
	ConeAngle float64    `yaml:"cone_angle,omitempty"`
	ConeDelta float64    `yaml:"cone_delta,omitempty"`
	MapName   string     `yaml:"map_name,omitempty"`
}

// Environment is emission arriving from infinitely far away
type Environment struct {
	Name        string     `yaml:"name"`
	Frame       core.Frame `yaml:"frame"`
	Emission    core.Vec3  `yaml:"emission"`
	EmissionTex int        `yaml:"emission_tex"`
}

// Builder receives scene entities from a loader. Every Add method returns
// the handle of the new entity, which is its index in the matching list.
type Builder interface {
	AddCamera(camera Camera) int
	AddTexture(texture Texture) int
	AddMaterial(material Material) int
	AddShape(shape Shape) int
	AddInstance(instance Instance) int
	AddLight(light Light) int
	AddEnvironment(environment Environment) int
}

// Scene is the in-memory scene graph produced by the loaders
type Scene struct {
	Cameras      []Camera      `yaml:"cameras"`
	Textures     []Texture     `yaml:"textures"`
	Materials    []Material    `yaml:"materials"`
	Shapes       []Shape       `yaml:"shapes"`
	Instances    []Instance    `yaml:"instances"`
	Lights       []Light       `yaml:"lights"`
	Environments []Environment `yaml:"environments"`
}

// NewScene creates an empty scene
func NewScene() *Scene {
	return &Scene{
		Cameras:      make([]Camera, 0),
		Textures:     make([]Texture, 0),
		Materials:    make([]Material, 0),
		Shapes:       make([]Shape, 0),
		Instances:    make([]Instance, 0),
		Lights:       make([]Light, 0),
		Environments: make([]Environment, 0),
	}
}

// AddCamera appends a camera and returns its handle
func (s *Scene) AddCamera(camera Camera) int {
	s.Cameras = append(s.Cameras, camera)
	return len(s.Cameras) - 1
}

// AddTexture appends a texture and returns its handle
func (s *Scene) AddTexture(texture Texture) int {
	s.Textures = append(s.Textures, texture)
	return len(s.Textures) - 1
}

// AddMaterial appends a material and returns its handle
func (s *Scene) AddMaterial(material Material) int {
	s.Materials = append(s.Materials, material)
	return len(s.Materials) - 1
}

// AddShape appends a shape and returns its handle
func (s *Scene) AddShape(shape Shape) int {
	s.Shapes = append(s.Shapes, shape)
	return len(s.Shapes) - 1
}

// AddInstance appends an instance and returns its handle
func (s *Scene) AddInstance(instance Instance) int {
	s.Instances = append(s.Instances, instance)
	return len(s.Instances) - 1
}

// AddLight appends a light and returns its handle
func (s *Scene) AddLight(light Light) int {
	s.Lights = append(s.Lights, light)
	return len(s.Lights) - 1
}

// AddEnvironment appends an environment and returns its handle
func (s *Scene) AddEnvironment(environment Environment) int {
	s.Environments = append(s.Environments, environment)
	return len(s.Environments) - 1
}

// Bounds returns the world-space bounding box of all instances
func (s *Scene) Bounds() core.AABB {
	box := core.EmptyAABB()
	for _, instance := range s.Instances {
		if instance.Shape < 0 || instance.Shape >= len(s.Shapes) {
			continue
		}
		shape := &s.Shapes[instance.Shape]
		box = box.Union(shape.Bounds().Transform(instance.Frame))
	}
	return box
}

// TriangleCount returns the number of triangles across all instances
func (s *Scene) TriangleCount() int {
	count := 0
	for _, instance := range s.Instances {
		if instance.Shape >= 0 && instance.Shape < len(s.Shapes) {
			count += len(s.Shapes[instance.Shape].Triangles)
		}
	}
	return count
}

var _ Builder = (*Scene)(nil)
