package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-sceneio/pkg/core"
	"github.com/df07/go-sceneio/pkg/log"
	"github.com/df07/go-sceneio/pkg/scene"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
	Elements    []PLYElement // every element in file order, including unknown ones

	HasNormals   bool
	HasColors    bool
	HasTexCoords bool
}

// PLYElement is an element declaration with its properties
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the raw data loaded from a PLY file
type PLYData struct {
	Vertices  []core.Vec3 // Vertex positions (x, y, z)
	Faces     []int       // Triangle indices (3 per triangle)
	Normals   []core.Vec3 // Per-vertex normals - empty if not present
	Colors    []core.Vec3 // Per-vertex colors normalized to [0,1] - empty if not present
	TexCoords []core.Vec2 // Per-vertex texture coordinates - empty if not present
}

// LoadPLY loads a PLY file and returns the raw vertex and face data
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	return ReadPLY(file)
}

// ReadPLY decodes PLY data from r. Polygons with more than three vertices
// are fan-triangulated.
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &plyBinaryReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &plyBinaryReader{r: reader, order: binary.BigEndian}
	case "ascii":
		values = &plyASCIIReader{r: reader}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	data, err := readPLYElements(values, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return data, nil
}

// parsePLYHeader parses the PLY header, leaving reader at the first data byte
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{
		VertexProps: make([]PLYProperty, 0),
		FaceProps:   make([]PLYProperty, 0),
	}

	first := true
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unexpected end of header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic number")
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element definition: %s", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
			switch parts[1] {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			}
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property outside element: %s", line)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			element := &header.Elements[len(header.Elements)-1]
			element.Props = append(element.Props, prop)

			switch element.Name {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
				switch prop.Name {
				case "nx", "ny", "nz":
					header.HasNormals = true
				case "red", "green", "blue", "r", "g", "b":
					header.HasColors = true
				case "u", "s", "texture_u", "v", "t", "texture_v":
					header.HasTexCoords = true
				}
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		default:
			return nil, fmt.Errorf("unknown header line: %s", line)
		}
	}

	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
	}

	if getTypeSize(prop.Type) == 0 && !prop.IsList {
		return PLYProperty{}, fmt.Errorf("unsupported data type: %s", prop.Type)
	}
	if prop.IsList && (getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0) {
		return PLYProperty{}, fmt.Errorf("unsupported list type: %s %s", prop.ListType, prop.DataType)
	}
	return prop, nil
}

// plyValueReader reads one scalar of a PLY data type
type plyValueReader interface {
	read(dataType string) (float64, error)
}

type plyBinaryReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryReader) read(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}
	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	case "double", "float64":
		return math.Float64frombits(b.order.Uint64(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "char", "int8":
		return float64(int8(buf[0])), nil
	default: // uchar, uint8
		return float64(buf[0]), nil
	}
}

type plyASCIIReader struct {
	r *bufio.Reader
}

func (a *plyASCIIReader) read(dataType string) (float64, error) {
	var token []byte
	for {
		c, err := a.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(token) > 0 {
				break
			}
			return 0, err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if len(token) > 0 {
				break
			}
			continue
		}
		token = append(token, c)
	}
	v, err := strconv.ParseFloat(string(token), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, token)
	}
	return v, nil
}

// readPLYElements reads all elements in header order, keeping vertex and
// face data
func readPLYElements(values plyValueReader, header *PLYHeader) (*PLYData, error) {
	data := &PLYData{
		Vertices: make([]core.Vec3, 0, header.VertexCount),
		Faces:    make([]int, 0, header.FaceCount*3),
	}
	if header.HasNormals {
		data.Normals = make([]core.Vec3, 0, header.VertexCount)
	}
	if header.HasColors {
		data.Colors = make([]core.Vec3, 0, header.VertexCount)
	}
	if header.HasTexCoords {
		data.TexCoords = make([]core.Vec2, 0, header.VertexCount)
	}

	var polygon []int
	for _, element := range header.Elements {
		for i := 0; i < element.Count; i++ {
			var vertex VertexData
			for _, prop := range element.Props {
				if prop.IsList {
					count, err := values.read(prop.ListType)
					if err != nil {
						return nil, fmt.Errorf("failed to read %s count at %s %d: %w", prop.Name, element.Name, i, err)
					}
					polygon = polygon[:0]
					for k := 0; k < int(count); k++ {
						index, err := values.read(prop.DataType)
						if err != nil {
							return nil, fmt.Errorf("failed to read %s at %s %d: %w", prop.Name, element.Name, i, err)
						}
						polygon = append(polygon, int(index))
					}
					if element.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
						if len(polygon) < 3 {
							return nil, fmt.Errorf("face %d has %d vertices", i, len(polygon))
						}
						// fan triangulation
						for k := 1; k+1 < len(polygon); k++ {
							data.Faces = append(data.Faces, polygon[0], polygon[k], polygon[k+1])
						}
					}
					continue
				}

				value, err := values.read(prop.Type)
				if err != nil {
					return nil, fmt.Errorf("failed to read %s at %s %d: %w", prop.Name, element.Name, i, err)
				}
				if element.Name == "vertex" {
					vertex.set(prop, value)
				}
			}

			if element.Name == "vertex" {
				data.Vertices = append(data.Vertices, core.NewVec3(vertex.X, vertex.Y, vertex.Z))
				if header.HasNormals {
					data.Normals = append(data.Normals, core.NewVec3(vertex.NX, vertex.NY, vertex.NZ))
				}
				if header.HasColors {
					data.Colors = append(data.Colors, core.NewVec3(vertex.R, vertex.G, vertex.B))
				}
				if header.HasTexCoords {
					data.TexCoords = append(data.TexCoords, core.NewVec2(vertex.U, vertex.V))
				}
			}
		}
	}

	for _, index := range data.Faces {
		if index < 0 || index >= len(data.Vertices) {
			return nil, fmt.Errorf("face index %d out of range [0, %d)", index, len(data.Vertices))
		}
	}
	return data, nil
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 for an
// unknown type
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// VertexData holds the vertex properties of interest
type VertexData struct {
	X, Y, Z    float64
	NX, NY, NZ float64
	R, G, B    float64
	U, V       float64
}

// set stores one property value. Integer colors are normalized to [0,1].
func (v *VertexData) set(prop PLYProperty, value float64) {
	color := value
	switch prop.Type {
	case "uchar", "uint8":
		color = value / 255
	case "ushort", "uint16":
		color = value / 65535
	}

	switch prop.Name {
	case "x":
		v.X = value
	case "y":
		v.Y = value
	case "z":
		v.Z = value
	case "nx":
		v.NX = value
	case "ny":
		v.NY = value
	case "nz":
		v.NZ = value
	case "red", "r":
		v.R = color
	case "green", "g":
		v.G = color
	case "blue", "b":
		v.B = color
	case "u", "s", "texture_u":
		v.U = value
	case "v", "t", "texture_v":
		v.V = value
	}
}

// ToShape converts PLY data to a scene shape. Texture v is flipped to the
// top-left image origin of the scene graph.
func (d *PLYData) ToShape(name string) *scene.Shape {
	shape := &scene.Shape{
		Name:      name,
		Positions: d.Vertices,
		Normals:   d.Normals,
		Triangles: make([][3]int, len(d.Faces)/3),
	}
	for i := range shape.Triangles {
		shape.Triangles[i] = [3]int{d.Faces[3*i], d.Faces[3*i+1], d.Faces[3*i+2]}
	}
	if len(d.TexCoords) > 0 {
		shape.TexCoords = make([]core.Vec2, len(d.TexCoords))
		for i, uv := range d.TexCoords {
			shape.TexCoords[i] = core.NewVec2(uv.X, 1-uv.Y)
		}
	}
	return shape
}

// PLYMeshLoader loads PLY files as scene shapes
type PLYMeshLoader struct {
	Logger log.Logger
}

// LoadMesh implements scene.MeshLoader
func (l PLYMeshLoader) LoadMesh(path string) (*scene.Shape, error) {
	startTime := time.Now()
	data, err := LoadPLY(path)
	if err != nil {
		return nil, err
	}
	if l.Logger != nil {
		l.Logger.Debugf("loaded %s: %d vertices, %d triangles in %v",
			filepath.Base(path), len(data.Vertices), len(data.Faces)/3, time.Since(startTime))
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return data.ToShape(name), nil
}

var _ scene.MeshLoader = PLYMeshLoader{}

// SavePLY writes a shape as a binary little-endian PLY file
func SavePLY(filename string, shape *scene.Shape) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create PLY file: %w", err)
	}
	if err := WritePLY(file, shape); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WritePLY encodes a shape as binary little-endian PLY
func WritePLY(w io.Writer, shape *scene.Shape) error {
	n := len(shape.Positions)
	hasNormals := len(shape.Normals) == n && n > 0
	hasTexCoords := len(shape.TexCoords) == n && n > 0

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat binary_little_endian 1.0\n")
	fmt.Fprintf(bw, "element vertex %d\n", n)
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	if hasNormals {
		fmt.Fprintf(bw, "property float nx\nproperty float ny\nproperty float nz\n")
	}
	if hasTexCoords {
		fmt.Fprintf(bw, "property float u\nproperty float v\n")
	}
	fmt.Fprintf(bw, "element face %d\n", len(shape.Triangles))
	fmt.Fprintf(bw, "property list uchar int vertex_indices\nend_header\n")

	var buf [4]byte
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
		bw.Write(buf[:])
	}
	for i, p := range shape.Positions {
		putFloat(p.X)
		putFloat(p.Y)
		putFloat(p.Z)
		if hasNormals {
			putFloat(shape.Normals[i].X)
			putFloat(shape.Normals[i].Y)
			putFloat(shape.Normals[i].Z)
		}
		if hasTexCoords {
			putFloat(shape.TexCoords[i].X)
			putFloat(1 - shape.TexCoords[i].Y)
		}
	}
	for _, tri := range shape.Triangles {
		bw.WriteByte(3)
		for _, index := range tri {
			binary.LittleEndian.PutUint32(buf[:], uint32(int32(index)))
			bw.Write(buf[:])
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write PLY data: %w", err)
	}
	return nil
}
