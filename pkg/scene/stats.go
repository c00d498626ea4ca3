package scene

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// Stats summarizes the contents of a scene
type Stats struct {
	Cameras      int
	Textures     int
	Materials    int
	Emissive     int
	Shapes       int
	Instances    int
	Lights       int
	Environments int
	Vertices     int
	Triangles    int
}

// Stats counts the entities in the scene
func (s *Scene) Stats() Stats {
	stats := Stats{
		Cameras:      len(s.Cameras),
		Textures:     len(s.Textures),
		Materials:    len(s.Materials),
		Shapes:       len(s.Shapes),
		Instances:    len(s.Instances),
		Lights:       len(s.Lights),
		Environments: len(s.Environments),
		Triangles:    s.TriangleCount(),
	}
	for _, m := range s.Materials {
		if !m.Emission.IsZero() {
			stats.Emissive++
		}
	}
	for _, shape := range s.Shapes {
		stats.Vertices += len(shape.Positions)
	}
	return stats
}

// StatsTable renders scene statistics as a text table
func (s *Scene) StatsTable() string {
	stats := s.Stats()
	bounds := s.Bounds()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Entity", "Count"})
	table.Append([]string{"Cameras", fmt.Sprintf("%d", stats.Cameras)})
	table.Append([]string{"Textures", fmt.Sprintf("%d", stats.Textures)})
	table.Append([]string{"Materials", fmt.Sprintf("%d", stats.Materials)})
	table.Append([]string{"  emissive", fmt.Sprintf("%d", stats.Emissive)})
	table.Append([]string{"Shapes", fmt.Sprintf("%d", stats.Shapes)})
	table.Append([]string{"  vertices", fmt.Sprintf("%d", stats.Vertices)})
	table.Append([]string{"Instances", fmt.Sprintf("%d", stats.Instances)})
	table.Append([]string{"  triangles", fmt.Sprintf("%d", stats.Triangles)})
	table.Append([]string{"Lights", fmt.Sprintf("%d", stats.Lights)})
	table.Append([]string{"Environments", fmt.Sprintf("%d", stats.Environments)})
	if bounds.IsValid() {
		table.SetFooter([]string{"Bounds", fmt.Sprintf("%.3g .. %.3g", bounds.Min, bounds.Max)})
	}

	table.Render()
	return buf.String()
}
