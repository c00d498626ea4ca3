package scene

import (
	"math"

	"github.com/df07/go-sceneio/pkg/core"
)

// MakeSphere tessellates a z-up sphere centered at the origin. steps is the
// number of latitude bands; longitude uses twice as many.
func MakeSphere(name string, radius float64, steps int) Shape {
	if steps < 2 {
		steps = 2
	}
	stepsU, stepsV := 2*steps, steps

	shape := Shape{Name: name}
	for j := 0; j <= stepsV; j++ {
		for i := 0; i <= stepsU; i++ {
			u := float64(i) / float64(stepsU)
			v := float64(j) / float64(stepsV)
			phi, theta := 2*math.Pi*u, math.Pi*v
			n := core.NewVec3(math.Cos(phi)*math.Sin(theta), math.Sin(phi)*math.Sin(theta), math.Cos(theta))
			shape.Positions = append(shape.Positions, n.Multiply(radius))
			shape.Normals = append(shape.Normals, n)
			shape.TexCoords = append(shape.TexCoords, core.NewVec2(u, v))
		}
	}
	shape.Triangles = gridTriangles(stepsU, stepsV)
	return shape
}

// MakeDisk tessellates a disk of the given radius in the plane z = height,
// facing +Z.
func MakeDisk(name string, radius, height float64, steps int) Shape {
	if steps < 3 {
		steps = 3
	}

	shape := Shape{Name: name}
	normal := core.NewVec3(0, 0, 1)
	shape.Positions = append(shape.Positions, core.NewVec3(0, 0, height))
	shape.Normals = append(shape.Normals, normal)
	shape.TexCoords = append(shape.TexCoords, core.NewVec2(0.5, 0.5))
	for i := 0; i < steps; i++ {
		phi := 2 * math.Pi * float64(i) / float64(steps)
		c, s := math.Cos(phi), math.Sin(phi)
		shape.Positions = append(shape.Positions, core.NewVec3(radius*c, radius*s, height))
		shape.Normals = append(shape.Normals, normal)
		shape.TexCoords = append(shape.TexCoords, core.NewVec2(0.5+0.5*c, 0.5+0.5*s))
	}
	for i := 0; i < steps; i++ {
		shape.Triangles = append(shape.Triangles, [3]int{0, 1 + i, 1 + (i+1)%steps})
	}
	return shape
}

// gridTriangles indexes a (stepsU+1) x (stepsV+1) vertex grid
func gridTriangles(stepsU, stepsV int) [][3]int {
	triangles := make([][3]int, 0, 2*stepsU*stepsV)
	for j := 0; j < stepsV; j++ {
		for i := 0; i < stepsU; i++ {
			a := j*(stepsU+1) + i
			b := a + 1
			c := a + stepsU + 1
			d := c + 1
			triangles = append(triangles, [3]int{a, b, d}, [3]int{a, d, c})
		}
	}
	return triangles
}

// ComputeNormals returns area-weighted smooth vertex normals
func ComputeNormals(positions []core.Vec3, triangles [][3]int) []core.Vec3 {
	normals := make([]core.Vec3, len(positions))
	for _, t := range triangles {
		p0, p1, p2 := positions[t[0]], positions[t[1]], positions[t[2]]
		n := p1.Subtract(p0).Cross(p2.Subtract(p0))
		for _, idx := range t {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}
