package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
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

// createTestPLY writes a unit quad as two triangles in binary little-endian
func createTestPLY(t *testing.T, filename string, includeNormals, includeColors bool) {
	t.Helper()
	var buf bytes.Buffer

	buf.WriteString("ply\nformat binary_little_endian 1.0\ncomment test file\nelement vertex 4\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\n")
	if includeNormals {
		buf.WriteString("property float nx\nproperty float ny\nproperty float nz\n")
	}
	if includeColors {
		buf.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	buf.WriteString("element face 2\nproperty list uchar int vertex_indices\nend_header\n")

	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, v := range vertices {
		binary.Write(&buf, binary.LittleEndian, v)
		if includeNormals {
			binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
		}
		if includeColors {
			buf.Write([]byte{255, 128, 0})
		}
	}
	for _, face := range [][3]int32{{0, 1, 2}, {0, 2, 3}} {
		buf.WriteByte(3)
		binary.Write(&buf, binary.LittleEndian, face)
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(filename), 0o755))
	require.NoError(t, os.WriteFile(filename, buf.Bytes(), 0o644))
}

func TestLoadPLY_Basic(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "basic.ply")
	createTestPLY(t, filename, false, false)

	data, err := LoadPLY(filename)
	require.NoError(t, err)

	assert.Len(t, data.Vertices, 4)
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, data.Faces)
	assert.Empty(t, data.Normals)
	assert.Empty(t, data.Colors)
	assert.Equal(t, core.NewVec3(1, 1, 0), data.Vertices[2])
}

func TestLoadPLY_WithNormals(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "normals.ply")
	createTestPLY(t, filename, true, false)

	data, err := LoadPLY(filename)
	require.NoError(t, err)

	require.Len(t, data.Normals, 4)
	for _, n := range data.Normals {
		assert.Equal(t, core.NewVec3(0, 0, 1), n)
	}
}

func TestLoadPLY_WithColors(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "colors.ply")
	createTestPLY(t, filename, false, true)

	data, err := LoadPLY(filename)
	require.NoError(t, err)

	require.Len(t, data.Colors, 4)
	assert.InDelta(t, 1.0, data.Colors[0].X, 1e-9)
	assert.InDelta(t, 128.0/255.0, data.Colors[0].Y, 1e-9)
	assert.InDelta(t, 0.0, data.Colors[0].Z, 1e-9)
}

func TestLoadPLY_NonExistentFile(t *testing.T) {
	_, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply"))
	assert.Error(t, err)
}

func TestReadPLY_ASCIIQuad(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
property float u
property float v
element face 1
property list uchar int vertex_indices
end_header
0 0 0 0 0
1 0 0 1 0
1 1 0 1 1
0 1 0 0 1
4 0 1 2 3
`
	data, err := ReadPLY(strings.NewReader(src))
	require.NoError(t, err)

	assert.Len(t, data.Vertices, 4)
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, data.Faces, "quad is fan-triangulated")
	require.Len(t, data.TexCoords, 4)
	assert.Equal(t, core.NewVec2(1, 1), data.TexCoords[2])

	shape := data.ToShape("quad")
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, shape.Triangles)
	assert.Equal(t, core.NewVec2(0, 1), shape.TexCoords[0], "v is flipped")
}

func TestReadPLY_BigEndian(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_big_endian 1.0\nelement vertex 3\n")
	buf.WriteString("property double x\nproperty double y\nproperty double z\n")
	buf.WriteString("element face 1\nproperty list uchar uint vertex_indices\nend_header\n")
	for _, v := range [][3]float64{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}} {
		binary.Write(&buf, binary.BigEndian, v)
	}
	buf.WriteByte(3)
	binary.Write(&buf, binary.BigEndian, [3]uint32{0, 1, 2})

	data, err := ReadPLY(&buf)
	require.NoError(t, err)
	assert.Equal(t, core.NewVec3(0, 3, 0), data.Vertices[2])
	assert.Equal(t, []int{0, 1, 2}, data.Faces)
}

func TestReadPLY_SkipsUnknownElements(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
property float confidence
element face 1
property list uchar int vertex_indices
element edge 1
property int vertex1
property int vertex2
end_header
0 0 0 1
1 0 0 1
0 1 0 1
3 0 1 2
0 1
`
	data, err := ReadPLY(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, data.Vertices, 3)
	assert.Equal(t, []int{0, 1, 2}, data.Faces)
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing magic", "plx\nformat ascii 1.0\nend_header\n"},
		{"bad format", "ply\nformat binary_middle_endian 1.0\nelement vertex 0\nend_header\n"},
		{"truncated header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"bad type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n"},
		{"index out of range", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0\n3 0 1 2\n"},
		{"truncated data", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nend_header\n0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestParsePLYHeader(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "header.ply")
	createTestPLY(t, filename, true, true)

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	header, err := parsePLYHeader(bufio.NewReader(file))
	require.NoError(t, err)

	assert.Equal(t, "binary_little_endian", header.Format)
	assert.Equal(t, "1.0", header.Version)
	assert.Equal(t, 4, header.VertexCount)
	assert.Equal(t, 2, header.FaceCount)
	assert.True(t, header.HasNormals)
	assert.True(t, header.HasColors)
	assert.False(t, header.HasTexCoords)
	assert.Len(t, header.VertexProps, 9)
	require.Len(t, header.FaceProps, 1)
	assert.True(t, header.FaceProps[0].IsList)
	assert.Equal(t, "uchar", header.FaceProps[0].ListType)
	assert.Equal(t, "int", header.FaceProps[0].DataType)
}

func TestGetTypeSize(t *testing.T) {
	tests := []struct {
		dataType string
		expected int
	}{
		{"float", 4},
		{"float32", 4},
		{"double", 8},
		{"float64", 8},
		{"int", 4},
		{"uint32", 4},
		{"short", 2},
		{"ushort", 2},
		{"char", 1},
		{"uchar", 1},
		{"uint8", 1},
		{"unknown", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, getTypeSize(tt.dataType), tt.dataType)
	}
}

func TestSavePLY_RoundTrip(t *testing.T) {
	shape := &scene.Shape{
		Name:      "tri",
		Positions: []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)},
		Normals:   []core.Vec3{core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1)},
		TexCoords: []core.Vec2{core.NewVec2(0, 0.25), core.NewVec2(1, 0.5), core.NewVec2(0, 1)},
		Triangles: [][3]int{{0, 1, 2}},
	}
	filename := filepath.Join(t.TempDir(), "tri.ply")
	require.NoError(t, SavePLY(filename, shape))

	loaded, err := PLYMeshLoader{}.LoadMesh(filename)
	require.NoError(t, err)

	assert.Equal(t, "tri", loaded.Name)
	assert.Equal(t, shape.Triangles, loaded.Triangles)
	assert.Equal(t, shape.Positions, loaded.Positions)
	assert.Equal(t, shape.Normals, loaded.Normals)
	require.Len(t, loaded.TexCoords, 3)
	for i := range shape.TexCoords {
		assert.InDelta(t, shape.TexCoords[i].Y, loaded.TexCoords[i].Y, 1e-6)
	}
	assert.False(t, math.IsNaN(loaded.Bounds().Max.X))
}
